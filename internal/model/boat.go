package model

import "time"

// Boat is one bookable fleet unit. Capacity planning counts active boats;
// inactive boats (maintenance, decommissioned) are excluded from the
// total the availability engine checks against.
type Boat struct {
	ID          uint64    // boats.id
	Name        string    // boats.name
	Description *string   // boats.description (nullable)
	Active      bool      // boats.is_active
	CreatedAt   time.Time // boats.created_at
	UpdatedAt   time.Time // boats.updated_at
}

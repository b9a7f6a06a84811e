package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// BoatRepo provides read access to the fleet. The availability engine
// only needs the active-unit count; the listing supports the admin and
// browse surfaces.
type BoatRepo struct {
	db *sql.DB
}

// NewBoatRepo returns a new BoatRepo bound to the given database.
func NewBoatRepo(db *sql.DB) *BoatRepo { return &BoatRepo{db: db} }

// ActiveUnitCount returns how many boats are currently bookable.
func (r *BoatRepo) ActiveUnitCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM boats WHERE is_active = 1`).Scan(&n)
	return n, err
}

// List returns all boats, active first, then by name.
func (r *BoatRepo) List(ctx context.Context) ([]model.Boat, error) {
	const q = `SELECT id, name, description, is_active, created_at, updated_at
		FROM boats ORDER BY is_active DESC, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	boats := make([]model.Boat, 0)
	for rows.Next() {
		var (
			b    model.Boat
			desc sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &desc, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if desc.Valid {
			v := desc.String
			b.Description = &v
		}
		boats = append(boats, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return boats, nil
}

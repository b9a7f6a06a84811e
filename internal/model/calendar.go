package model

import "time"

// DayStatus enumerates the operability of a calendar day. A date with no
// calendar_days row is OPEN by default.
type DayStatus string

const (
	DayOpen          DayStatus = "OPEN"
	DayClosed        DayStatus = "CLOSED"
	DayPartialClosed DayStatus = "PARTIAL_CLOSED"
)

// ClosedSlot is a time range excluded from booking on a PARTIAL_CLOSED
// day. Minutes since midnight, half-open [Start, End).
type ClosedSlot struct {
	StartMinute int // calendar_closed_slots.start_minute
	EndMinute   int // calendar_closed_slots.end_minute
}

// CalendarDay records whether a date is operable. Closed slots are only
// meaningful when Status is PARTIAL_CLOSED. The status may be set because
// of external marine conditions, but that linkage happens upstream; the
// booking core only reads the recorded status.
type CalendarDay struct {
	Date        time.Time    // calendar_days.cal_date (UTC midnight)
	Status      DayStatus    // calendar_days.status
	Reason      *string      // calendar_days.reason (nullable)
	ClosedSlots []ClosedSlot // calendar_closed_slots rows
	CreatedAt   time.Time    // calendar_days.created_at
	UpdatedAt   time.Time    // calendar_days.updated_at
}

package booking

import (
	"context"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// CalendarStore loads operating-calendar entries. GetDay returns nil
// (not an error) when no entry exists for the date; absent entries mean
// the day is open.
type CalendarStore interface {
	GetDay(ctx context.Context, date time.Time) (*model.CalendarDay, error)
}

// CalendarGate answers whether a date, or a time range within it, is
// open for booking. It is a pure read over calendar state; closures are
// recorded upstream (often because of marine conditions) and the gate
// only consults the recorded status.
type CalendarGate struct {
	store CalendarStore
}

// NewCalendarGate returns a gate reading from the given store.
func NewCalendarGate(store CalendarStore) *CalendarGate {
	return &CalendarGate{store: store}
}

// IsOperable reports whether the day accepts bookings at all. Only a
// recorded CLOSED day is inoperable; PARTIAL_CLOSED days and days with
// no record remain operable at the day level.
func (g *CalendarGate) IsOperable(ctx context.Context, date time.Time) (bool, error) {
	day, err := g.store.GetDay(ctx, date)
	if err != nil {
		return false, err
	}
	return day == nil || day.Status != model.DayClosed, nil
}

// IsSlotAvailable reports whether the [startMinute, endMinute) window is
// bookable on the date. CLOSED days reject everything; PARTIAL_CLOSED
// days reject windows intersecting any recorded closed slot.
func (g *CalendarGate) IsSlotAvailable(ctx context.Context, date time.Time, startMinute, endMinute int) (bool, error) {
	day, err := g.store.GetDay(ctx, date)
	if err != nil {
		return false, err
	}
	if day == nil || day.Status == model.DayOpen {
		return true, nil
	}
	if day.Status == model.DayClosed {
		return false, nil
	}
	for _, slot := range day.ClosedSlots {
		if Overlaps(startMinute, endMinute, slot.StartMinute, slot.EndMinute) {
			return false, nil
		}
	}
	return true, nil
}

// ClosureReason returns the recorded reason for a non-open day, or nil.
func (g *CalendarGate) ClosureReason(ctx context.Context, date time.Time) (*string, error) {
	day, err := g.store.GetDay(ctx, date)
	if err != nil || day == nil {
		return nil, err
	}
	return day.Reason, nil
}

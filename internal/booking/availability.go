package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// ReservationReader loads the reservations that count against capacity.
// Only PENDING and CONFIRMED reservations for the date are returned.
type ReservationReader interface {
	ListActiveByDate(ctx context.Context, date time.Time) ([]model.Reservation, error)
}

// FleetStore reports the size of the active fleet.
type FleetStore interface {
	ActiveUnitCount(ctx context.Context) (int, error)
}

// CheckResult is the outcome of an availability check. Reason is a
// human-readable rejection cause; FreeUnits is populated for capacity
// answers so callers can retry with a smaller request.
type CheckResult struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	FreeUnits int    `json:"free_units"`

	// Conflict distinguishes a capacity shortfall from a policy
	// rejection; capacity failures are retryable with fewer units.
	Conflict bool `json:"-"`
}

// Slot is a bookable candidate window returned by SuggestSlots.
type Slot struct {
	StartMinute int `json:"-"`
	EndMinute   int `json:"-"`
	FreeUnits   int `json:"free_units"`
}

// AvailabilityEngine decides whether a requested number of fleet units
// fits a date/time window, applying the operational policy checks in
// order and short-circuiting on the first failure.
type AvailabilityEngine struct {
	settings     Settings
	reservations ReservationReader
	fleet        FleetStore
	gate         *CalendarGate
}

// NewAvailabilityEngine wires the engine to its collaborators.
func NewAvailabilityEngine(settings Settings, reservations ReservationReader, fleet FleetStore, gate *CalendarGate) *AvailabilityEngine {
	return &AvailabilityEngine{settings: settings, reservations: reservations, fleet: fleet, gate: gate}
}

// BookedUnits sums the unit counts of live reservations whose window
// overlaps the requested one expanded by the turnaround buffer. The
// buffer guarantees cleaning and refuelling time between consecutive
// charters on the same physical unit.
func BookedUnits(reservations []model.Reservation, startMinute, endMinute, bufferMinutes int) int {
	from := startMinute - bufferMinutes
	to := endMinute + bufferMinutes
	total := 0
	for i := range reservations {
		r := &reservations[i]
		if r.Status != model.StatusPending && r.Status != model.StatusConfirmed {
			continue
		}
		if Overlaps(r.StartMinute, r.EndMinute, from, to) {
			total += r.UnitCount
		}
	}
	return total
}

// Check runs the ordered availability checks for a request. now anchors
// the past-date, advance-window and notice checks so behavior is
// deterministic under test.
func (e *AvailabilityEngine) Check(ctx context.Context, now, date time.Time, startMinute int, durationHours float64, unitCount int) (CheckResult, error) {
	if unitCount < 1 {
		return CheckResult{}, &ValidationError{Field: "unit_count", Msg: "must be at least 1"}
	}
	if durationHours <= 0 || float64(int(durationHours*2)) != durationHours*2 {
		return CheckResult{}, &ValidationError{Field: "duration", Msg: "must be a positive multiple of 0.5 hours"}
	}

	day := DateOnly(date)
	today := DateOnly(now)
	if day.Before(today) {
		return CheckResult{Reason: "date is in the past"}, nil
	}
	horizon := today.AddDate(0, 0, e.settings.MaxAdvanceDays)
	if day.After(horizon) {
		return CheckResult{Reason: fmt.Sprintf("bookings open at most %d days in advance", e.settings.MaxAdvanceDays)}, nil
	}
	start := StartsAt(day, startMinute)
	if start.Sub(now).Hours() < e.settings.MinNoticeHours {
		return CheckResult{Reason: fmt.Sprintf("bookings require at least %g hours notice", e.settings.MinNoticeHours)}, nil
	}
	if durationHours < e.settings.MinDurationHours || durationHours > e.settings.MaxDurationHours {
		return CheckResult{Reason: fmt.Sprintf("duration must be between %g and %g hours", e.settings.MinDurationHours, e.settings.MaxDurationHours)}, nil
	}
	endMinute := startMinute + int(durationHours*60)
	if startMinute < e.settings.OpenMinute || endMinute > e.settings.CloseMinute {
		return CheckResult{Reason: fmt.Sprintf("charters operate between %s and %s", FormatMinute(e.settings.OpenMinute), FormatMinute(e.settings.CloseMinute))}, nil
	}

	operable, err := e.gate.IsOperable(ctx, day)
	if err != nil {
		return CheckResult{}, err
	}
	if !operable {
		return CheckResult{Reason: "we are closed on the selected date"}, nil
	}
	slotOpen, err := e.gate.IsSlotAvailable(ctx, day, startMinute, endMinute)
	if err != nil {
		return CheckResult{}, err
	}
	if !slotOpen {
		return CheckResult{Reason: "the selected time is unavailable on that date"}, nil
	}

	free, err := e.freeUnits(ctx, day, startMinute, endMinute)
	if err != nil {
		return CheckResult{}, err
	}
	if free < unitCount {
		return CheckResult{
			Reason:    fmt.Sprintf("only %d of our boats are available for that time", free),
			FreeUnits: free,
			Conflict:  true,
		}, nil
	}
	return CheckResult{Available: true, FreeUnits: free}, nil
}

// SuggestSlots walks the operating window in fixed strides and returns
// up to max open slots for the requested duration. Slots already in the
// past or inside the notice window are skipped via the same checks a
// direct request would face.
func (e *AvailabilityEngine) SuggestSlots(ctx context.Context, now, date time.Time, durationHours float64, max int) ([]Slot, error) {
	if max <= 0 {
		max = 5
	}
	step := e.settings.SlotStepMinutes
	if step <= 0 {
		step = 60
	}
	span := int(durationHours * 60)
	var out []Slot
	for start := e.settings.OpenMinute; start+span <= e.settings.CloseMinute && len(out) < max; start += step {
		res, err := e.Check(ctx, now, date, start, durationHours, 1)
		if err != nil {
			return nil, err
		}
		if res.Available {
			out = append(out, Slot{StartMinute: start, EndMinute: start + span, FreeUnits: res.FreeUnits})
		}
	}
	return out, nil
}

func (e *AvailabilityEngine) freeUnits(ctx context.Context, day time.Time, startMinute, endMinute int) (int, error) {
	total, err := e.fleet.ActiveUnitCount(ctx)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		total = e.settings.FleetFallback
	}
	live, err := e.reservations.ListActiveByDate(ctx, day)
	if err != nil {
		return 0, err
	}
	booked := BookedUnits(live, startMinute, endMinute, e.settings.BufferMinutes)
	free := total - booked
	if free < 0 {
		free = 0
	}
	return free, nil
}

package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

type fakeReservations struct {
	byDate map[string][]model.Reservation
}

func (f *fakeReservations) ListActiveByDate(_ context.Context, d time.Time) ([]model.Reservation, error) {
	return f.byDate[DateOnly(d).Format("2006-01-02")], nil
}

type fakeFleet struct{ total int }

func (f *fakeFleet) ActiveUnitCount(_ context.Context) (int, error) { return f.total, nil }

func testSettings() Settings {
	return Settings{
		MaxAdvanceDays:   30,
		MinNoticeHours:   2,
		BufferMinutes:    30,
		OpenMinute:       480,  // 08:00
		CloseMinute:      1200, // 20:00
		MinDurationHours: 1,
		MaxDurationHours: 8,
		SlotStepMinutes:  60,
		BaseRate:         2000,
		TaxPercent:       18,
	}
}

func live(dateKey string, start, end, units int) model.Reservation {
	d, _ := ParseDate(dateKey)
	return model.Reservation{
		Date: d, StartMinute: start, EndMinute: end, UnitCount: units,
		Status: model.StatusConfirmed,
	}
}

func newTestEngine(fleetSize int, existing ...model.Reservation) *AvailabilityEngine {
	byDate := map[string][]model.Reservation{}
	for _, r := range existing {
		key := DateOnly(r.Date).Format("2006-01-02")
		byDate[key] = append(byDate[key], r)
	}
	return NewAvailabilityEngine(
		testSettings(),
		&fakeReservations{byDate: byDate},
		&fakeFleet{total: fleetSize},
		calendarWith(),
	)
}

var testNow = time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)

func TestBookedUnitsBufferedOverlap(t *testing.T) {
	reservations := []model.Reservation{
		live("2026-09-01", 600, 720, 2),                     // 10:00-12:00
		live("2026-09-01", 780, 840, 1),                     // 13:00-14:00
		{StartMinute: 600, EndMinute: 720, UnitCount: 5, Status: model.StatusCancelled},
	}

	cases := []struct {
		name       string
		start, end int
		buffer     int
		want       int
	}{
		{"direct overlap", 660, 750, 0, 2},
		{"between charters no buffer", 720, 780, 0, 0},
		{"between charters with buffer catches both", 720, 780, 30, 3},
		{"disjoint window", 900, 960, 0, 0},
		{"cancelled reservations never count", 600, 720, 0, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BookedUnits(reservations, tc.start, tc.end, tc.buffer); got != tc.want {
				t.Errorf("booked = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCheckOrderedRejections(t *testing.T) {
	engine := newTestEngine(3)
	ctx := context.Background()

	cases := []struct {
		name       string
		date       string
		start      int
		duration   float64
		units      int
		wantReason string
	}{
		{"past date", "2026-08-27", 600, 2, 1, "past"},
		{"beyond advance horizon", "2026-10-15", 600, 2, 1, "advance"},
		{"insufficient notice", "2026-08-28", 630, 2, 1, "notice"},
		{"duration too long", "2026-09-01", 600, 10, 1, "duration"},
		{"before opening", "2026-09-01", 420, 1, 1, "operate"},
		{"runs past closing", "2026-09-01", 1140, 2, 1, "operate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := ParseDate(tc.date)
			got, err := engine.Check(ctx, testNow, d, tc.start, tc.duration, tc.units)
			if err != nil {
				t.Fatal(err)
			}
			if got.Available {
				t.Fatalf("expected rejection, got %+v", got)
			}
			if !strings.Contains(got.Reason, tc.wantReason) {
				t.Errorf("reason %q does not mention %q", got.Reason, tc.wantReason)
			}
		})
	}
}

func TestCheckInvalidInputs(t *testing.T) {
	engine := newTestEngine(3)
	d := date(2026, time.September, 1)

	if _, err := engine.Check(context.Background(), testNow, d, 600, 2, 0); err == nil {
		t.Errorf("zero units must be a validation error")
	}
	if _, err := engine.Check(context.Background(), testNow, d, 600, 1.25, 1); err == nil {
		t.Errorf("duration off the half-hour grid must be a validation error")
	}
}

func TestCheckCapacity(t *testing.T) {
	// Fleet of 3, one existing charter holding 1 unit from 10:00-12:00.
	engine := newTestEngine(3, live("2026-09-01", 600, 720, 1))
	d := date(2026, time.September, 1)
	ctx := context.Background()

	got, err := engine.Check(ctx, testNow, d, 630, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Available || got.FreeUnits != 2 {
		t.Fatalf("want 2 free units available, got %+v", got)
	}

	// Asking for 3 when only 2 are free: rejected, reason names the count.
	got, err = engine.Check(ctx, testNow, d, 630, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Fatalf("expected capacity rejection, got %+v", got)
	}
	if got.FreeUnits != 2 || !got.Conflict {
		t.Errorf("free units = %d conflict=%v, want 2/true", got.FreeUnits, got.Conflict)
	}
	if !strings.Contains(got.Reason, "2") {
		t.Errorf("reason %q should mention the available count", got.Reason)
	}
}

func TestCheckClosedDay(t *testing.T) {
	d := date(2026, time.September, 1)
	engine := NewAvailabilityEngine(
		testSettings(),
		&fakeReservations{byDate: map[string][]model.Reservation{}},
		&fakeFleet{total: 3},
		calendarWith(&model.CalendarDay{Date: d, Status: model.DayClosed}),
	)
	got, err := engine.Check(context.Background(), testNow, d, 600, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Fatalf("closed day must reject, got %+v", got)
	}
}

func TestCheckPartialClosureSlots(t *testing.T) {
	d := date(2026, time.September, 1)
	engine := NewAvailabilityEngine(
		testSettings(),
		&fakeReservations{byDate: map[string][]model.Reservation{}},
		&fakeFleet{total: 3},
		calendarWith(&model.CalendarDay{
			Date:        d,
			Status:      model.DayPartialClosed,
			ClosedSlots: []model.ClosedSlot{{StartMinute: 600, EndMinute: 720}}, // 10:00-12:00
		}),
	)
	ctx := context.Background()

	// 11:00 for 1.5h intersects the closure.
	got, err := engine.Check(ctx, testNow, d, 660, 1.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available {
		t.Errorf("11:00-12:30 should be rejected on the partially closed day")
	}
	// 12:30 for 1h is clear of it.
	got, err = engine.Check(ctx, testNow, d, 750, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Available {
		t.Errorf("12:30-13:30 should be accepted, got %+v", got)
	}
}

func TestCheckFleetFallback(t *testing.T) {
	settings := testSettings()
	settings.FleetFallback = 4
	engine := NewAvailabilityEngine(settings, &fakeReservations{byDate: map[string][]model.Reservation{}}, &fakeFleet{total: 0}, calendarWith())

	got, err := engine.Check(context.Background(), testNow, date(2026, time.September, 1), 600, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Available || got.FreeUnits != 4 {
		t.Errorf("fallback fleet size not honored: %+v", got)
	}
}

func TestSuggestSlots(t *testing.T) {
	// Fleet of 2, both units taken 10:00-12:00. With the 30-minute buffer
	// a 2-hour candidate collides whenever it starts after 07:30 and
	// before 12:30, so the first open hourly slot is 13:00.
	engine := newTestEngine(2, live("2026-09-01", 600, 720, 2))
	d := date(2026, time.September, 1)

	slots, err := engine.SuggestSlots(context.Background(), testNow, d, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	if slots[0].StartMinute != 780 {
		t.Errorf("first slot starts at %s, want 13:00", FormatMinute(slots[0].StartMinute))
	}
	for _, s := range slots {
		if s.EndMinute-s.StartMinute != 120 {
			t.Errorf("slot %s-%s is not 2 hours", FormatMinute(s.StartMinute), FormatMinute(s.EndMinute))
		}
		if Overlaps(s.StartMinute, s.EndMinute, 600-30, 720+30) {
			t.Errorf("suggested slot %s-%s collides with the buffered booking", FormatMinute(s.StartMinute), FormatMinute(s.EndMinute))
		}
	}
}

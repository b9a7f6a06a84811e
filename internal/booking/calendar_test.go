package booking

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// fakeCalendarStore serves calendar days from a map keyed by date.
type fakeCalendarStore struct {
	days map[string]*model.CalendarDay
}

func (f *fakeCalendarStore) GetDay(_ context.Context, d time.Time) (*model.CalendarDay, error) {
	return f.days[DateOnly(d).Format("2006-01-02")], nil
}

func calendarWith(days ...*model.CalendarDay) *CalendarGate {
	m := make(map[string]*model.CalendarDay, len(days))
	for _, d := range days {
		m[DateOnly(d.Date).Format("2006-01-02")] = d
	}
	return NewCalendarGate(&fakeCalendarStore{days: m})
}

func TestIsOperable(t *testing.T) {
	d := date(2026, time.September, 1)
	reason := "storm warning"

	cases := []struct {
		name string
		gate *CalendarGate
		want bool
	}{
		{"no record defaults to open", calendarWith(), true},
		{"open day", calendarWith(&model.CalendarDay{Date: d, Status: model.DayOpen}), true},
		{"closed day", calendarWith(&model.CalendarDay{Date: d, Status: model.DayClosed, Reason: &reason}), false},
		{"partial closure is operable at day level", calendarWith(&model.CalendarDay{Date: d, Status: model.DayPartialClosed}), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.gate.IsOperable(context.Background(), d)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("operable = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsSlotAvailablePartialClosure(t *testing.T) {
	d := date(2026, time.September, 1)
	// Closed slot 10:00-12:00.
	gate := calendarWith(&model.CalendarDay{
		Date:        d,
		Status:      model.DayPartialClosed,
		ClosedSlots: []model.ClosedSlot{{StartMinute: 600, EndMinute: 720}},
	})

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"11:00-12:30 intersects the closure", 660, 750, false},
		{"12:30-13:30 after the closure", 750, 810, true},
		{"08:00-10:00 touching start does not overlap", 480, 600, true},
		{"12:00-13:00 touching end does not overlap", 720, 780, true},
		{"09:30-10:30 crossing the start", 570, 630, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gate.IsSlotAvailable(context.Background(), d, tc.start, tc.end)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("slot available = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsSlotAvailableClosedAndOpenDays(t *testing.T) {
	d := date(2026, time.September, 1)

	closed := calendarWith(&model.CalendarDay{Date: d, Status: model.DayClosed})
	if got, _ := closed.IsSlotAvailable(context.Background(), d, 600, 660); got {
		t.Errorf("closed day must reject every slot")
	}
	open := calendarWith()
	if got, _ := open.IsSlotAvailable(context.Background(), d, 600, 660); !got {
		t.Errorf("absent record must accept every slot")
	}
}

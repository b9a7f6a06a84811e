package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBookingErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "validation is 400",
			err:        &booking.ValidationError{Field: "date", Msg: "expected YYYY-MM-DD"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid date",
		},
		{
			name:       "policy violation is 422",
			err:        &booking.PolicyViolation{Reason: "we are closed on the selected date"},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "closed",
		},
		{
			name:       "capacity conflict is 409 with free_units",
			err:        &booking.ConflictError{Reason: "only 1 of our boats are available for that time", FreeUnits: 1},
			wantStatus: http.StatusConflict,
			wantBody:   "free_units",
		},
		{
			name:       "not found is 404",
			err:        &booking.NotFoundError{Kind: "reservation", ID: 9},
			wantStatus: http.StatusNotFound,
			wantBody:   "not found",
		},
		{
			name:       "terminal state is 409",
			err:        &booking.TerminalStateError{Status: model.StatusCancelled},
			wantStatus: http.StatusConflict,
			wantBody:   "CANCELLED",
		},
		{
			name:       "unknown errors are 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			if err := bookingError(c, tc.err); err != nil {
				t.Fatalf("bookingError returned %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Errorf("body %q does not contain %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestGetUserID(t *testing.T) {
	c, _ := newTestContext(t)

	if _, err := getUserID(c); err == nil {
		t.Error("expected error when user_id is absent")
	}

	// JWT claims decode numbers as float64.
	c.Set("user_id", float64(42))
	id, err := getUserID(c)
	if err != nil || id != 42 {
		t.Errorf("getUserID(float64) = %d, %v", id, err)
	}

	c.Set("user_id", "17")
	id, err = getUserID(c)
	if err != nil || id != 17 {
		t.Errorf("getUserID(string) = %d, %v", id, err)
	}
}

func TestReservationViewFormatsTimes(t *testing.T) {
	ref := "txn-1"
	r := &model.Reservation{
		ID:            3,
		UserID:        8,
		StartMinute:   10 * 60,
		EndMinute:     12 * 60,
		DurationHours: 2,
		UnitCount:     1,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		PaymentRef:    &ref,
	}
	v := newReservationView(r)
	if v.StartTime != "10:00" || v.EndTime != "12:00" {
		t.Errorf("times = %s-%s, want 10:00-12:00", v.StartTime, v.EndTime)
	}
	if v.Cancellation != nil {
		t.Error("cancellation should be omitted when absent")
	}
}

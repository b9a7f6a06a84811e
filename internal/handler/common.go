package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWTAuth stores the raw claim value, whose concrete type
// depends on how the token was encoded.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

// parseID parses a numeric path parameter, rejecting zero.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bookingError translates the typed errors returned by the booking core
// into HTTP responses:
//
//	ValidationError    -> 400 malformed input
//	PolicyViolation    -> 422 well-formed but rejected by policy
//	ConflictError      -> 409 capacity shortfall, carries free_units
//	NotFoundError      -> 404
//	TerminalStateError -> 409 reservation can no longer change
//
// Anything else is an internal error.
func bookingError(c echo.Context, err error) error {
	var (
		ve *booking.ValidationError
		pv *booking.PolicyViolation
		ce *booking.ConflictError
		nf *booking.NotFoundError
		ts *booking.TerminalStateError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.As(err, &pv):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": pv.Reason})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, echo.Map{"error": ce.Reason, "free_units": ce.FreeUnits})
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, echo.Map{"error": nf.Error()})
	case errors.As(err, &ts):
		return c.JSON(http.StatusConflict, echo.Map{"error": ts.Error()})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pricingView is the JSON shape of a pricing snapshot.
type pricingView struct {
	BaseRate       float64  `json:"base_rate"`
	RuleID         *uint64  `json:"rule_id,omitempty"`
	RuleName       *string  `json:"rule_name,omitempty"`
	AdjustedRate   float64  `json:"adjusted_rate"`
	Subtotal       float64  `json:"subtotal"`
	TaxPercent     float64  `json:"tax_percent"`
	TaxAmount      float64  `json:"tax_amount"`
	TaxHalf        float64  `json:"tax_half"`
	TotalAmount    float64  `json:"total_amount"`
	OverrideAmount *float64 `json:"override_amount,omitempty"`
	FinalAmount    float64  `json:"final_amount"`
}

type cancellationView struct {
	CancelledAt   string  `json:"cancelled_at"`
	CancelledBy   string  `json:"cancelled_by"`
	Reason        string  `json:"reason,omitempty"`
	RefundPercent float64 `json:"refund_percent"`
	RefundAmount  float64 `json:"refund_amount"`
}

// reservationView is the JSON shape of a reservation. Times are
// rendered back into the wire formats the API accepts: YYYY-MM-DD
// dates and HH:MM clock times.
type reservationView struct {
	ID            uint64            `json:"id"`
	UserID        uint64            `json:"user_id"`
	Date          string            `json:"date"`
	StartTime     string            `json:"start_time"`
	EndTime       string            `json:"end_time"`
	DurationHours float64           `json:"duration_hours"`
	UnitCount     int               `json:"unit_count"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentRef    *string           `json:"payment_ref,omitempty"`
	Pricing       pricingView       `json:"pricing"`
	Cancellation  *cancellationView `json:"cancellation,omitempty"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

func newPricingView(p model.PricingSnapshot) pricingView {
	return pricingView{
		BaseRate:       p.BaseRate,
		RuleID:         p.RuleID,
		RuleName:       p.RuleName,
		AdjustedRate:   p.AdjustedRate,
		Subtotal:       p.Subtotal,
		TaxPercent:     p.TaxPercent,
		TaxAmount:      p.TaxAmount,
		TaxHalf:        p.TaxHalf,
		TotalAmount:    p.TotalAmount,
		OverrideAmount: p.OverrideAmount,
		FinalAmount:    p.FinalAmount,
	}
}

func newReservationView(r *model.Reservation) reservationView {
	v := reservationView{
		ID:            r.ID,
		UserID:        r.UserID,
		Date:          r.Date.Format("2006-01-02"),
		StartTime:     booking.FormatMinute(r.StartMinute),
		EndTime:       booking.FormatMinute(r.EndMinute),
		DurationHours: r.DurationHours,
		UnitCount:     r.UnitCount,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		PaymentRef:    r.PaymentRef,
		Pricing:       newPricingView(r.Pricing),
		CreatedAt:     r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.Cancellation != nil {
		v.Cancellation = &cancellationView{
			CancelledAt:   r.Cancellation.CancelledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			CancelledBy:   string(r.Cancellation.Actor),
			Reason:        r.Cancellation.Reason,
			RefundPercent: r.Cancellation.RefundPercent,
			RefundAmount:  r.Cancellation.RefundAmount,
		}
	}
	return v
}

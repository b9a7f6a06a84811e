package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
)

// validStatuses are the values accepted by the status endpoint. The
// transition table in the booking core decides whether the move is
// legal; this set only rejects unknown spellings early.
var validStatuses = map[model.ReservationStatus]bool{
	model.StatusPending:   true,
	model.StatusConfirmed: true,
	model.StatusCompleted: true,
	model.StatusCancelled: true,
	model.StatusNoShow:    true,
}

// UpdateStatus handles PATCH /v1/reservations/:id/status. It moves a
// reservation through its lifecycle (confirm, complete, mark no-show).
// Cancellation goes through the cancel endpoint instead so the refund
// policy always runs.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.ReservationStatus(body.Status)
	if !validStatuses[status] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	if status == model.StatusCancelled {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "use the cancel endpoint so the refund policy applies"})
	}
	res, err := h.Orchestrator.UpdateStatus(c.Request().Context(), id, status)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

// MarkPaid handles POST /v1/reservations/:id/payment. Recording payment
// promotes a PENDING reservation to CONFIRMED; the optional payment_ref
// ties the reservation to the processor's transaction.
func (h *ReservationHandler) MarkPaid(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		PaymentRef *string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	res, err := h.Orchestrator.MarkPaid(c.Request().Context(), id, body.PaymentRef)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

// ListByDate handles GET /v1/reservations?date=YYYY-MM-DD for
// administrators: the day's live board of PENDING and CONFIRMED
// reservations, used at the dock to plan departures.
func (h *ReservationHandler) ListByDate(c echo.Context) error {
	date, err := booking.ParseDate(c.QueryParam("date"))
	if err != nil {
		return bookingError(c, err)
	}
	items, err := h.Repo.ListActiveByDate(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	out := make([]reservationView, 0, len(items))
	for i := range items {
		out = append(out, newReservationView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date.Format("2006-01-02"), "items": out})
}

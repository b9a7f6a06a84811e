package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
	"github.com/iliyamo/charter-fleet-booking/internal/repository"
)

// ReservationHandler serves the authenticated reservation endpoints.
// Customers create, list, view and cancel their own reservations;
// administrators may act on any reservation and additionally set manual
// price overrides. JWT authentication and role checks run in middleware
// before any method here is reached.
type ReservationHandler struct {
	Orchestrator *booking.Orchestrator
	Repo         *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler. Both
// dependencies must be non-nil.
func NewReservationHandler(orch *booking.Orchestrator, repo *repository.ReservationRepo) *ReservationHandler {
	if orch == nil || repo == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Orchestrator: orch, Repo: repo}
}

// CreateReservation handles POST /v1/reservations. The body carries the
// date, start time, duration, unit count and an optional payment
// reference. override_amount is accepted only from administrators;
// customers sending one get a 403 rather than a silently ignored field.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Date           string   `json:"date"`
		StartTime      string   `json:"start_time"`
		DurationHours  float64  `json:"duration_hours"`
		UnitCount      int      `json:"unit_count"`
		PaymentRef     *string  `json:"payment_ref"`
		OverrideAmount *float64 `json:"override_amount"`
		ForUserID      *uint64  `json:"for_user_id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.OverrideAmount != nil && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only administrators may override the price"})
	}
	if body.ForUserID != nil {
		// Phone bookings: an administrator books on a customer's behalf.
		if !isAdmin(c) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only administrators may book for another user"})
		}
		userID = *body.ForUserID
	}
	date, err := booking.ParseDate(body.Date)
	if err != nil {
		return bookingError(c, err)
	}
	start, err := booking.ParseMinute(body.StartTime)
	if err != nil {
		return bookingError(c, err)
	}

	res, err := h.Orchestrator.CreateReservation(c.Request().Context(), booking.CreateRequest{
		UserID:         userID,
		Date:           date,
		StartMinute:    start,
		DurationHours:  body.DurationHours,
		UnitCount:      body.UnitCount,
		PayerRef:       body.PaymentRef,
		OverrideAmount: body.OverrideAmount,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, newReservationView(res))
}

// ListReservations handles GET /v1/my-reservations. It returns all
// reservations created by the current user, newest first. When no
// reservations exist it returns an empty array.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Repo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	out := make([]reservationView, 0, len(items))
	for i := range items {
		out = append(out, newReservationView(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetReservation handles GET /v1/reservations/:id. Customers see only
// their own reservations; a reservation owned by someone else answers
// 404 rather than 403 so IDs cannot be probed. Administrators see any
// reservation.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	var res *model.Reservation
	if isAdmin(c) {
		res, err = h.Repo.GetByID(ctx, id)
	} else {
		res, err = h.Repo.GetByIDForUser(ctx, id, userID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": newReservationView(res)})
}

// CancelReservation handles POST /v1/reservations/:id/cancel. The
// refund tier depends on who cancels: customers fall under the timing
// policy, administrators always refund in full. Customers may cancel
// only their own reservations.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	actor := model.ActorCustomer
	if isAdmin(c) {
		actor = model.ActorAdmin
	} else {
		// Ownership check before touching the reservation.
		if _, err := h.Repo.GetByIDForUser(ctx, id, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
		}
	}

	res, err := h.Orchestrator.Cancel(ctx, id, body.Reason, actor)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, newReservationView(res))
}

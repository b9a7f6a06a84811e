package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/repository"
)

// PublicHandler serves the unauthenticated read endpoints: availability
// checks, alternative-slot suggestions, price quotes and the boat list.
// These routes sit behind the response cache and rate limiter, not
// behind JWT auth, so guests can browse before registering.
type PublicHandler struct {
	Engine       *booking.AvailabilityEngine
	Orchestrator *booking.Orchestrator
	BoatRepo     *repository.BoatRepo
}

// NewPublicHandler constructs a PublicHandler. All dependencies must be
// non-nil.
func NewPublicHandler(engine *booking.AvailabilityEngine, orch *booking.Orchestrator, boats *repository.BoatRepo) *PublicHandler {
	if engine == nil || orch == nil || boats == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Engine: engine, Orchestrator: orch, BoatRepo: boats}
}

// availabilityQuery parses the shared query parameters of the
// availability and quote endpoints: date=YYYY-MM-DD, start=HH:MM,
// duration in hours and units (default 1).
func availabilityQuery(c echo.Context) (date time.Time, startMinute int, duration float64, units int, err error) {
	date, err = booking.ParseDate(c.QueryParam("date"))
	if err != nil {
		return
	}
	startMinute, err = booking.ParseMinute(c.QueryParam("start"))
	if err != nil {
		return
	}
	duration, err = strconv.ParseFloat(c.QueryParam("duration"), 64)
	if err != nil {
		err = &booking.ValidationError{Field: "duration", Msg: "expected a decimal number of hours"}
		return
	}
	units = 1
	if raw := c.QueryParam("units"); raw != "" {
		units, err = strconv.Atoi(raw)
		if err != nil {
			err = &booking.ValidationError{Field: "units", Msg: "expected an integer"}
			return
		}
	}
	return
}

// GetAvailability handles GET /v1/availability. It answers whether the
// requested window can be booked and how many units remain free. The
// answer is advisory; the authoritative check happens again inside the
// reservation transaction.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	date, start, duration, units, err := availabilityQuery(c)
	if err != nil {
		return bookingError(c, err)
	}
	res, err := h.Engine.Check(c.Request().Context(), time.Now().UTC(), date, start, duration, units)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetSuggestions handles GET /v1/availability/suggestions. It walks the
// operating window and returns up to max bookable slots for the
// requested duration on the date.
func (h *PublicHandler) GetSuggestions(c echo.Context) error {
	date, err := booking.ParseDate(c.QueryParam("date"))
	if err != nil {
		return bookingError(c, err)
	}
	duration, err := strconv.ParseFloat(c.QueryParam("duration"), 64)
	if err != nil {
		return bookingError(c, &booking.ValidationError{Field: "duration", Msg: "expected a decimal number of hours"})
	}
	max := 5
	if raw := c.QueryParam("max"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			max = n
		}
	}
	slots, err := h.Engine.SuggestSlots(c.Request().Context(), time.Now().UTC(), date, duration, max)
	if err != nil {
		return bookingError(c, err)
	}
	type slotView struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		FreeUnits int    `json:"free_units"`
	}
	out := make([]slotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView{
			StartTime: booking.FormatMinute(s.StartMinute),
			EndTime:   booking.FormatMinute(s.EndMinute),
			FreeUnits: s.FreeUnits,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"date": date.Format("2006-01-02"), "slots": out})
}

// GetQuote handles GET /v1/quote. It prices a prospective reservation
// without persisting anything: rule matching and tax calculation run
// exactly as they would at booking time.
func (h *PublicHandler) GetQuote(c echo.Context) error {
	date, start, duration, units, err := availabilityQuery(c)
	if err != nil {
		return bookingError(c, err)
	}
	pricing, err := h.Orchestrator.Quote(c.Request().Context(), date, start, duration, units)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, newPricingView(pricing))
}

// ListBoats handles GET /v1/boats. It returns the fleet, including
// inactive units so returning customers can see a boat under
// maintenance rather than wondering where it went.
func (h *PublicHandler) ListBoats(c echo.Context) error {
	boats, err := h.BoatRepo.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load boats"})
	}
	type boatView struct {
		ID          uint64  `json:"id"`
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
		Active      bool    `json:"active"`
	}
	out := make([]boatView, 0, len(boats))
	for _, b := range boats {
		out = append(out, boatView{ID: b.ID, Name: b.Name, Description: b.Description, Active: b.Active})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

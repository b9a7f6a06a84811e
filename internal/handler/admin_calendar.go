package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
	"github.com/iliyamo/charter-fleet-booking/internal/repository"
	"github.com/iliyamo/charter-fleet-booking/internal/weather"
)

// CalendarHandler serves the administrative operating-calendar
// endpoints: reading and recording day closures and consulting the
// marine forecast for a date. Forecast is nil when no provider is
// configured; the conditions endpoint answers 503 in that case.
type CalendarHandler struct {
	Repo     *repository.CalendarRepo
	Forecast *weather.Client
}

// NewCalendarHandler constructs a CalendarHandler. forecast may be nil.
func NewCalendarHandler(repo *repository.CalendarRepo, forecast *weather.Client) *CalendarHandler {
	if repo == nil {
		panic("nil repository passed to NewCalendarHandler")
	}
	return &CalendarHandler{Repo: repo, Forecast: forecast}
}

type closedSlotView struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type calendarDayView struct {
	Date        string           `json:"date"`
	Status      string           `json:"status"`
	Reason      *string          `json:"reason,omitempty"`
	ClosedSlots []closedSlotView `json:"closed_slots,omitempty"`
}

func newCalendarDayView(d *model.CalendarDay) calendarDayView {
	v := calendarDayView{
		Date:   d.Date.Format("2006-01-02"),
		Status: string(d.Status),
		Reason: d.Reason,
	}
	for _, s := range d.ClosedSlots {
		v.ClosedSlots = append(v.ClosedSlots, closedSlotView{
			StartTime: booking.FormatMinute(s.StartMinute),
			EndTime:   booking.FormatMinute(s.EndMinute),
		})
	}
	return v
}

// ListDays handles GET /v1/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD. Only
// recorded days are returned; absent dates are open by default and
// omitted.
func (h *CalendarHandler) ListDays(c echo.Context) error {
	from, err := booking.ParseDate(c.QueryParam("from"))
	if err != nil {
		return bookingError(c, err)
	}
	to, err := booking.ParseDate(c.QueryParam("to"))
	if err != nil {
		return bookingError(c, err)
	}
	if to.Before(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}
	days, err := h.Repo.ListRange(c.Request().Context(), from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load calendar"})
	}
	out := make([]calendarDayView, 0, len(days))
	for i := range days {
		out = append(out, newCalendarDayView(&days[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetDay handles GET /v1/calendar/:date. Dates with no recorded entry
// answer as OPEN, mirroring how the calendar gate treats them.
func (h *CalendarHandler) GetDay(c echo.Context) error {
	date, err := booking.ParseDate(c.Param("date"))
	if err != nil {
		return bookingError(c, err)
	}
	day, err := h.Repo.GetDay(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load calendar day"})
	}
	if day == nil {
		day = &model.CalendarDay{Date: date, Status: model.DayOpen}
	}
	return c.JSON(http.StatusOK, newCalendarDayView(day))
}

// UpsertDay handles PUT /v1/calendar/:date. Setting a day back to OPEN
// with no closed slots removes the record, restoring the default-open
// state. PARTIAL_CLOSED requires at least one closed slot.
func (h *CalendarHandler) UpsertDay(c echo.Context) error {
	date, err := booking.ParseDate(c.Param("date"))
	if err != nil {
		return bookingError(c, err)
	}
	var body struct {
		Status      string  `json:"status"`
		Reason      *string `json:"reason"`
		ClosedSlots []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"closed_slots"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := model.DayStatus(body.Status)
	switch status {
	case model.DayOpen, model.DayClosed, model.DayPartialClosed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	day := &model.CalendarDay{Date: date, Status: status, Reason: body.Reason}
	for _, s := range body.ClosedSlots {
		start, err := booking.ParseMinute(s.StartTime)
		if err != nil {
			return bookingError(c, err)
		}
		end, err := booking.ParseMinute(s.EndTime)
		if err != nil {
			return bookingError(c, err)
		}
		if end <= start {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "closed slot must end after it starts"})
		}
		day.ClosedSlots = append(day.ClosedSlots, model.ClosedSlot{StartMinute: start, EndMinute: end})
	}
	if status == model.DayPartialClosed && len(day.ClosedSlots) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "PARTIAL_CLOSED requires closed slots"})
	}
	if status != model.DayPartialClosed && len(day.ClosedSlots) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "closed slots are only valid on PARTIAL_CLOSED days"})
	}
	if err := h.Repo.UpsertDay(c.Request().Context(), day); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to save calendar day"})
	}
	return c.JSON(http.StatusOK, newCalendarDayView(day))
}

// GetConditions handles GET /v1/calendar/:date/conditions. It returns
// the cached marine forecast for the date so an administrator can
// decide whether to close the day. The forecast never gates bookings by
// itself; only a recorded closure does.
func (h *CalendarHandler) GetConditions(c echo.Context) error {
	if h.Forecast == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no forecast provider configured"})
	}
	date, err := booking.ParseDate(c.Param("date"))
	if err != nil {
		return bookingError(c, err)
	}
	summary, err := h.Forecast.DailySummary(c.Request().Context(), date)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "forecast provider unavailable"})
	}
	return c.JSON(http.StatusOK, summary)
}

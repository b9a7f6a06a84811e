package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/handler"
	"github.com/iliyamo/charter-fleet-booking/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1: the day
// board, reservation lifecycle moves, the operating calendar and the
// pricing rules. All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, r *handler.ReservationHandler, cal *handler.CalendarHandler, rules *handler.RuleHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Reservations ----
	g.GET("/reservations", r.ListByDate)
	g.PATCH("/reservations/:id/status", r.UpdateStatus)
	g.POST("/reservations/:id/payment", r.MarkPaid)

	// ---- Operating calendar ----
	g.GET("/calendar", cal.ListDays)
	g.GET("/calendar/:date", cal.GetDay)
	g.PUT("/calendar/:date", cal.UpsertDay)
	g.GET("/calendar/:date/conditions", cal.GetConditions)

	// ---- Pricing rules ----
	g.GET("/rules", rules.ListRules)
	g.GET("/rules/:id", rules.GetRule)
	g.POST("/rules", rules.CreateRule)
	g.PUT("/rules/:id", rules.UpdateRule)
	g.DELETE("/rules/:id", rules.DeleteRule)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/handler"
	"github.com/iliyamo/charter-fleet-booking/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1. All
// routes require a valid JWT; both roles are accepted because
// administrators use the same endpoints when booking over the phone,
// with ownership and override checks enforced in the handlers.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER", "ADMIN"),
	)
	g.POST("/reservations", h.CreateReservation)
	g.GET("/my-reservations", h.ListReservations)
	g.GET("/reservations/:id", h.GetReservation)
	g.POST("/reservations/:id/cancel", h.CancelReservation)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/charter-fleet-booking/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints:
// availability checks, slot suggestions, quotes and the boat list.
// These are the read-heavy routes, so the response cache and rate
// limiter are attached here; pass nil middlewares to run without them.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1", extra...)
	g.GET("/availability", p.GetAvailability)
	g.GET("/availability/suggestions", p.GetSuggestions)
	g.GET("/quote", p.GetQuote)
	g.GET("/boats", p.ListBoats)
}

package middleware

// identity.go holds helpers shared across middleware files for naming
// the caller in cache and rate-limit keys.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a string identifier for the authenticated
// caller, or "anon" when the request carries no token. JWTAuth stores
// the subject claim under "user_id"; the claim may decode as a string
// or a JSON number, so both are handled.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return "anon"
}

package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireSession rejects requests lacking the session token before the
// handler runs. Gated routes never reach the backend without it.
func RequireSession(guard *Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !guard.Authenticated(c.Request().Header.Get(echo.HeaderCookie)) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Not authenticated"})
			}
			return next(c)
		}
	}
}

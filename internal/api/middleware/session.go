package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/formauth/internal/core/ports"
)

// Context keys set by RequireSession.
const (
	UsernameKey = "username"
	RoleKey     = "role"
)

// RequireSession rejects the request with 401 unless a live session exists.
// The session is extended as a side effect and its owner is stored in the
// context under UsernameKey and RoleKey.
func RequireSession(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session, ok := auth.CurrentUser(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "no active session")
			}

			c.Set(UsernameKey, session.Username)
			c.Set(RoleKey, session.Role)

			return next(c)
		}
	}
}

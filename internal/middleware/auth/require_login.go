package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// RequireLogin sends anonymous callers to the login page with message as a
// warning flash.
func RequireLogin(message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) == nil {
				session.Get(c).AddFlash(session.CategoryWarning, message)
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// RedirectAuthenticated sends callers who are already logged in to the
// dashboard.
func RedirectAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return c.Redirect(http.StatusFound, DashboardPath)
		}
		return next(c)
	}
}

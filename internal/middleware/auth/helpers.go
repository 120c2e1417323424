package auth

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/service"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

const userContextKey = "user"

type UserLookup interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// Resolver loads the session's user once per request. A session that points
// at a missing user is treated as anonymous and left untouched.
func Resolver(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := session.Get(c).UserID()
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()
			user, err := users.UserByID(ctx, id)
			switch {
			case err == nil:
				setUserContext(c, user)
			case errors.Is(err, service.ErrNotFound):
				logging.FromContext(ctx).Debug("session_user", "status", "missing", "user_id", id)
			default:
				return err
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}

func setUserContext(c echo.Context, u *models.User) {
	c.Set(userContextKey, u)
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("user_id", u.ID)
	c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
}

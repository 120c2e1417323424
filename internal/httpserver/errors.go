package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/service"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

const msgFormExpired = "Your form has expired. Please reload the page and try again."

// csrfRejected shows a failed form check as a flash on the error page.
func csrfRejected(c echo.Context, _ string) error {
	session.Get(c).AddFlash(session.CategoryDanger, msgFormExpired)
	code := http.StatusForbidden
	return render(c, code, "error.html", errorView{Code: code, Message: http.StatusText(code)})
}

type errorView struct {
	Code    int
	Message string
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, http.StatusText(http.StatusNotFound)
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, http.StatusText(http.StatusBadRequest)
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, http.StatusText(http.StatusConflict)
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok && he.Code < 500 {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

// ErrorHandler renders every unhandled error as the HTML error page.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, msg := statusFor(err)
	l := logging.FromContext(c.Request().Context())
	if code >= 500 && !service.AlreadyLogged(err) {
		l.Error("unhandled_error", "status", code, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if rerr := render(c, code, "error.html", errorView{Code: code, Message: msg}); rerr != nil {
		l.Error("render_error", "status", code, "error", rerr)
		_ = c.String(code, msg)
	}
}

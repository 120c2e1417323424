package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sneaker_shop/internal/service"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

const (
	msgRequired      = "Name, email and password are required."
	msgEmailTaken    = "Email already registered. Please use a different email or log in."
	msgUnexpected    = "An unexpected error occurred. Please try again."
	msgRegistered    = "Registration successful! Please log in."
	msgInvalidLogin  = "Invalid email or password!"
	msgLoggedOut     = "You have been logged out."
	msgWelcomeFormat = "Welcome back, %s!"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

// credentialsForm refills the form after a failed submit. The password is
// never echoed back.
type credentialsForm struct {
	Name  string
	Email string
}

func (h *AuthHTTP) RegisterForm(c echo.Context) error {
	return render(c, http.StatusOK, "register.html", nil)
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")
	s := session.Get(c)

	form := credentialsForm{Name: c.FormValue("name"), Email: c.FormValue("email")}
	_, err := h.Svc.Register(ctx, form.Name, form.Email, c.FormValue("password"))
	switch {
	case err == nil:
		s.AddFlash(session.CategorySuccess, msgRegistered)
		return c.Redirect(http.StatusFound, auth.LoginPath)
	case errors.Is(err, service.ErrValidation):
		s.AddFlash(session.CategoryDanger, msgRequired)
		return render(c, http.StatusBadRequest, "register.html", form)
	case errors.Is(err, service.ErrConflict):
		s.AddFlash(session.CategoryDanger, msgEmailTaken)
		return render(c, http.StatusConflict, "register.html", form)
	default:
		l.Error("register_error", "status", 500, "error", err)
		s.AddFlash(session.CategoryDanger, msgUnexpected)
		return render(c, http.StatusInternalServerError, "register.html", form)
	}
}

func (h *AuthHTTP) LoginForm(c echo.Context) error {
	return render(c, http.StatusOK, "login.html", nil)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")
	s := session.Get(c)

	form := credentialsForm{Email: c.FormValue("email")}
	user, err := h.Svc.Login(ctx, form.Email, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			s.AddFlash(session.CategoryDanger, msgInvalidLogin)
			return render(c, http.StatusUnauthorized, "login.html", form)
		}
		l.Error("login_error", "status", 500, "error", err)
		s.AddFlash(session.CategoryDanger, msgUnexpected)
		return render(c, http.StatusInternalServerError, "login.html", form)
	}

	s.SetUser(user.ID)
	s.AddFlash(session.CategorySuccess, fmt.Sprintf(msgWelcomeFormat, user.Name))
	return c.Redirect(http.StatusFound, auth.DashboardPath)
}

// Logout is idempotent: an anonymous caller still gets the flash and the
// redirect.
func (h *AuthHTTP) Logout(c echo.Context) error {
	s := session.Get(c)
	if u := auth.CurrentUser(c); u != nil {
		h.Svc.Logout(c.Request().Context(), u.ID)
	}
	s.Clear()
	s.AddFlash(session.CategoryInfo, msgLoggedOut)
	return c.Redirect(http.StatusFound, "/")
}

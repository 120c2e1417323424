package session

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/logging"
)

const (
	DefaultCookieName = "session"
	issuer            = "sneaker_shop"
	contextKey        = "session"
)

type claims struct {
	jwt.RegisteredClaims
	Flashes []Flash `json:"flashes,omitempty"`
}

type Options struct {
	Secret     []byte
	TTL        time.Duration
	SameSite   http.SameSite
	Secure     bool
	CookieName string
}

type Manager struct {
	secret   []byte
	ttl      time.Duration
	sameSite http.SameSite
	secure   bool
	name     string
	now      func() time.Time
}

func NewManager(opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL == 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &Manager{
		secret:   opts.Secret,
		ttl:      opts.TTL,
		sameSite: opts.SameSite,
		secure:   opts.Secure,
		name:     opts.CookieName,
		now:      time.Now,
	}
}

// Middleware loads the session before the handler runs and writes the
// cookie back just before the response headers go out.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := m.load(c)
			c.Set(contextKey, s)

			c.Response().Before(func() {
				if !s.dirty {
					return
				}
				if err := m.save(c, s); err != nil {
					logging.FromContext(c.Request().Context()).Error("session_save",
						"status", "fail",
						"error", err,
					)
				}
			})

			return next(c)
		}
	}
}

// Get returns the request's session. Outside the middleware it returns a
// detached empty session so callers never deal with nil.
func Get(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}
	return &Session{}
}

func (m *Manager) load(c echo.Context) *Session {
	ck, err := c.Cookie(m.name)
	if err != nil || ck.Value == "" {
		return &Session{}
	}
	s, err := m.Decode(ck.Value)
	if err != nil {
		logging.FromContext(c.Request().Context()).Debug("session_load",
			"status", "rejected",
			"reason", err.Error(),
		)
		// drop the bad cookie on the way out
		return &Session{dirty: true}
	}
	return s
}

func (m *Manager) save(c echo.Context, s *Session) error {
	if s.empty() {
		c.SetCookie(m.deleteCookie())
		return nil
	}
	value, exp, err := m.Encode(s)
	if err != nil {
		return err
	}
	c.SetCookie(m.cookie(value, exp))
	return nil
}

func (m *Manager) Encode(s *Session) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	jti := s.jti
	if jti == "" {
		jti = uuid.NewString()
	}

	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.subject(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Flashes: s.flashes,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, exp, nil
}

func (m *Manager) Decode(value string) (*Session, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(value, &cl,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	s := &Session{jti: cl.ID, flashes: cl.Flashes}
	if cl.Subject != "" {
		id, err := strconv.ParseUint(cl.Subject, 10, 64)
		if err != nil || id == 0 {
			return nil, errors.New("parse session: bad subject")
		}
		s.userID = uint(id)
	}
	return s, nil
}

func (m *Manager) cookie(value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	}
}

func (m *Manager) deleteCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: m.sameSite,
	}
}

package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/Skotchmaster/sneaker_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sneaker_shop/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/sneaker_shop/internal/middleware/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

type Deps struct {
	Logger *slog.Logger

	AuthHandler   *AuthHTTP
	ShopHandler   *ShopHTTP
	HealthHandler *HealthHTTP

	Sessions *session.Manager
	Users    auth.UserLookup
	CSRF     csrf.Config

	StaticDir string
	// AuthRateLimit is the sustained rate of login/register submits per
	// client IP, in requests per second. Zero disables the limiter.
	AuthRateLimit float64
}

// New builds the echo instance with the full middleware chain and routes.
func New(d *Deps) (*echo.Echo, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.RequestID(),
		loggingmw.RequestLogger(d.Logger),
		middleware.Recover(),
		middleware.Secure(),
	)

	Register(e, d)
	return e, nil
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	if d.StaticDir != "" {
		e.Static("/static", d.StaticDir)
	}

	csrfCfg := d.CSRF
	if csrfCfg.ErrorHandler == nil {
		csrfCfg.ErrorHandler = csrfRejected
	}

	pages := e.Group("")
	pages.Use(
		d.Sessions.Middleware(),
		csrf.Middleware(csrfCfg),
		auth.Resolver(d.Users),
	)

	limit := authLimiter(d.AuthRateLimit)

	pages.GET("/", d.ShopHandler.Home, auth.RedirectAuthenticated)
	pages.GET("/register", d.AuthHandler.RegisterForm, auth.RedirectAuthenticated)
	pages.POST("/register", d.AuthHandler.Register, limit, auth.RedirectAuthenticated)
	pages.GET("/login", d.AuthHandler.LoginForm, auth.RedirectAuthenticated)
	pages.POST("/login", d.AuthHandler.Login, limit, auth.RedirectAuthenticated)
	pages.GET("/logout", d.AuthHandler.Logout)

	pages.GET("/dashboard", d.ShopHandler.Dashboard, auth.RequireLogin(msgLoginShop))
	pages.POST("/add_to_cart/:product_id", d.ShopHandler.AddToCart, auth.RequireLogin(msgLoginAdd))
	pages.GET("/cart", d.ShopHandler.Cart, auth.RequireLogin(msgLoginCart))
	pages.GET("/search", d.ShopHandler.Search, auth.RequireLogin(msgLoginSearch))
}

func authLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please wait a moment and try again.")
		},
	})
}

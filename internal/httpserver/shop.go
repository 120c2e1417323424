package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sneaker_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/service"
	"github.com/Skotchmaster/sneaker_shop/internal/session"
)

const (
	msgLoginShop   = "Please log in to view the shop."
	msgLoginAdd    = "Please log in to add items to your cart."
	msgLoginCart   = "Please log in to view your cart."
	msgLoginSearch = "Please log in to search the shop."
	msgAddedFormat = "%s added to cart!"
)

type ShopHTTP struct {
	Svc *service.ShopService
}

type catalogView struct {
	Products  []models.Product
	CartCount int64
	Query     string
}

func (h *ShopHTTP) Home(c echo.Context) error {
	return render(c, http.StatusOK, "home.html", nil)
}

func (h *ShopHTTP) Dashboard(c echo.Context) error {
	u := auth.CurrentUser(c)
	cat, err := h.Svc.Dashboard(c.Request().Context(), u.ID)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "dashboard.html", catalogView{Products: cat.Products, CartCount: cat.CartCount})
}

func (h *ShopHTTP) AddToCart(c echo.Context) error {
	u := auth.CurrentUser(c)

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 64)
	if err != nil || productID == 0 {
		return fmt.Errorf("product %q: %w", c.Param("product_id"), service.ErrNotFound)
	}

	product, _, err := h.Svc.AddToCart(c.Request().Context(), u.ID, uint(productID))
	if err != nil {
		return err
	}

	session.Get(c).AddFlash(session.CategorySuccess, fmt.Sprintf(msgAddedFormat, product.Name))
	return c.Redirect(http.StatusFound, auth.DashboardPath)
}

func (h *ShopHTTP) Cart(c echo.Context) error {
	u := auth.CurrentUser(c)
	cart, err := h.Svc.Cart(c.Request().Context(), u.ID)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "cart.html", cart)
}

func (h *ShopHTTP) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.Redirect(http.StatusFound, auth.DashboardPath)
	}

	u := auth.CurrentUser(c)
	cat, err := h.Svc.Search(c.Request().Context(), u.ID, q)
	if err != nil {
		return err
	}
	return render(c, http.StatusOK, "dashboard.html", catalogView{Products: cat.Products, CartCount: cat.CartCount, Query: q})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sneaker_shop/internal/events"
	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/repo"
	"github.com/Skotchmaster/sneaker_shop/internal/search"
)

type ShopService struct {
	Repo     *repo.GormRepo
	Events   events.Publisher
	Searcher search.Searcher
}

type Catalog struct {
	Products  []models.Product
	CartCount int64
}

type CartLine struct {
	Product  models.Product
	Quantity int
	Subtotal float64
}

type Cart struct {
	Lines []CartLine
	Total float64
}

func (s *ShopService) Dashboard(ctx context.Context, userID uint) (*Catalog, error) {
	products, err := s.Repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	count, err := s.Repo.CountCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count cart: %w", err)
	}
	return &Catalog{Products: products, CartCount: count}, nil
}

// AddToCart adds one unit of productID and returns the product together
// with the updated cart row.
func (s *ShopService) AddToCart(ctx context.Context, userID, productID uint) (*models.Product, *models.CartItem, error) {
	l := logging.FromContext(ctx).With("svc", "shop.add_to_cart", "user_id", userID, "product_id", productID)

	product, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_to_cart_failed", "status", 404, "reason", "product not found")
			return nil, nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		return nil, nil, err
	}

	item, err := s.Repo.AddToCart(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("add_to_cart_failed", "status", 404, "reason", "product not found")
			return nil, nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
		}
		l.Error("add_to_cart_failed", "status", 500, "error", err)
		return nil, nil, logged(err)
	}

	l.Info("add_to_cart_successful", "quantity", item.Quantity)
	publish(ctx, s.Events, events.TopicCart, events.CartItemAdded(userID, productID, item.Quantity))
	return product, item, nil
}

func (s *ShopService) Cart(ctx context.Context, userID uint) (*Cart, error) {
	items, err := s.Repo.ListCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	cart := &Cart{Lines: make([]CartLine, 0, len(items))}
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		sub := it.Product.Price * float64(it.Quantity)
		cart.Lines = append(cart.Lines, CartLine{
			Product:  *it.Product,
			Quantity: it.Quantity,
			Subtotal: sub,
		})
		cart.Total += sub
	}
	return cart, nil
}

func (s *ShopService) Search(ctx context.Context, userID uint, query string) (*Catalog, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", ErrValidation)
	}

	ids, err := s.Searcher.Search(ctx, query, search.DefaultLimit)
	if err != nil {
		logging.FromContext(ctx).Error("search_failed", "svc", "shop.search", "status", 500, "error", err)
		return nil, logged(fmt.Errorf("search: %w", err))
	}
	products, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	count, err := s.Repo.CountCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count cart: %w", err)
	}
	return &Catalog{Products: products, CartCount: count}, nil
}

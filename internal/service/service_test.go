package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sneaker_shop/internal/bootstrap"
	"github.com/Skotchmaster/sneaker_shop/internal/db"
	"github.com/Skotchmaster/sneaker_shop/internal/events"
	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/repo"
	"github.com/Skotchmaster/sneaker_shop/internal/search"
)

type published struct {
	Topic string
	Event events.Event
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{Topic: topic, Event: ev})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	for i, s := range p.sent {
		out[i] = s.Event.Type
	}
	return out
}

type fixture struct {
	repo *repo.GormRepo
	pub  *recordingPublisher
	auth *AuthService
	shop *ShopService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite://file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	_, err = bootstrap.Run(context.Background(), gdb, nil, logging.Discard())
	require.NoError(t, err)

	r := repo.New(gdb)
	pub := &recordingPublisher{}
	return &fixture{
		repo: r,
		pub:  pub,
		auth: &AuthService{Repo: r, Events: pub},
		shop: &ShopService{Repo: r, Events: pub, Searcher: search.DBSearcher{Repo: r}},
	}
}

func (f *fixture) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), name, email, "secret123")
	require.NoError(t, err)
	return u
}

func (f *fixture) products(t *testing.T) []models.Product {
	t.Helper()
	ps, err := f.repo.ListProducts(context.Background())
	require.NoError(t, err)
	return ps
}

func TestRegister_NormalisesAndHashes(t *testing.T) {
	f := newFixture(t)

	u := f.register(t, "  Ann ", "  Ann@Example.COM ")
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.Equal(t, []string{events.TypeUserRegistered}, f.pub.types())
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password string
	}{
		{"", "a@x.io", "pw"},
		{"Ann", " ", "pw"},
		{"Ann", "a@x.io", ""},
	}
	for _, tt := range tests {
		_, err := f.auth.Register(ctx, tt.name, tt.email, tt.password)
		require.ErrorIs(t, err, ErrValidation)
	}

	var n int64
	require.NoError(t, f.repo.DB.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.pub.types())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "ann@example.com")

	_, err := f.auth.Register(context.Background(), "Impostor", "ANN@example.com", "other")
	require.ErrorIs(t, err, ErrConflict)

	var n int64
	require.NoError(t, f.repo.DB.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t, "Ann", "ann@example.com")

	u, err := f.auth.Login(ctx, " ANN@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, u.ID)

	_, errWrongPw := f.auth.Login(ctx, "ann@example.com", "nope")
	_, errUnknown := f.auth.Login(ctx, "bob@example.com", "secret123")
	require.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrongPw.Error(), errUnknown.Error())

	assert.Equal(t, []string{events.TypeUserRegistered, events.TypeUserLoggedIn}, f.pub.types())
}

func TestLogout_PublishesEvent(t *testing.T) {
	f := newFixture(t)
	f.auth.Logout(context.Background(), 5)

	require.Len(t, f.pub.sent, 1)
	assert.Equal(t, events.TopicUsers, f.pub.sent[0].Topic)
	assert.EqualValues(t, 5, f.pub.sent[0].Event.UserID)
}

func TestUserByID(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ann", "ann@example.com")

	got, err := f.auth.UserByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = f.auth.UserByID(context.Background(), u.ID+100)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")

	_, err := f.auth.Register(context.Background(), "Ann", "ann@example.com", "pw")
	require.NoError(t, err)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")
	ps := f.products(t)

	cat, err := f.shop.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, cat.Products, 3)
	assert.Zero(t, cat.CartCount)

	_, _, err = f.shop.AddToCart(ctx, u.ID, ps[0].ID)
	require.NoError(t, err)
	_, _, err = f.shop.AddToCart(ctx, u.ID, ps[0].ID)
	require.NoError(t, err)

	cat, err = f.shop.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cat.CartCount)
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")
	ps := f.products(t)

	p, item, err := f.shop.AddToCart(ctx, u.ID, ps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "UltraBoost 21", p.Name)
	assert.Equal(t, 1, item.Quantity)

	_, item, err = f.shop.AddToCart(ctx, u.ID, ps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	last := f.pub.sent[len(f.pub.sent)-1]
	assert.Equal(t, events.TopicCart, last.Topic)
	assert.Equal(t, events.CartItemAdded(u.ID, ps[1].ID, 2), last.Event)
}

func TestAddToCart_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ann", "ann@example.com")

	_, _, err := f.shop.AddToCart(context.Background(), u.ID, 999)
	require.ErrorIs(t, err, ErrNotFound)

	cat, err := f.shop.Dashboard(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, cat.CartCount)
}

func TestCart_Totals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")
	ps := f.products(t)

	for i := 0; i < 2; i++ {
		_, _, err := f.shop.AddToCart(ctx, u.ID, ps[0].ID)
		require.NoError(t, err)
	}
	_, _, err := f.shop.AddToCart(ctx, u.ID, ps[2].ID)
	require.NoError(t, err)

	cart, err := f.shop.Cart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.InDelta(t, 379.98, cart.Lines[0].Subtotal, 0.001)
	assert.InDelta(t, 555.48, cart.Total, 0.001)
}

func TestCart_SingleProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")
	ps := f.products(t)

	_, _, err := f.shop.AddToCart(ctx, u.ID, ps[1].ID)
	require.NoError(t, err)

	cart, err := f.shop.Cart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.InDelta(t, 159.00, cart.Total, 0.001)

	_, _, err = f.shop.AddToCart(ctx, u.ID, ps[1].ID)
	require.NoError(t, err)

	cart, err = f.shop.Cart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.InDelta(t, 318.00, cart.Lines[0].Subtotal, 0.001)
	assert.InDelta(t, 318.00, cart.Total, 0.001)
}

func TestCart_Empty(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "Ann", "ann@example.com")

	cart, err := f.shop.Cart(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.Zero(t, cart.Total)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "Ann", "ann@example.com")

	cat, err := f.shop.Search(ctx, u.ID, "air")
	require.NoError(t, err)
	require.Len(t, cat.Products, 2)
	assert.Equal(t, "Air Jordan 1 Retro", cat.Products[0].Name)

	_, err = f.shop.Search(ctx, u.ID, "   ")
	require.ErrorIs(t, err, ErrValidation)
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) ([]uint, error) {
	return nil, errors.New("cluster unavailable")
}

func TestSearch_BackendError(t *testing.T) {
	f := newFixture(t)
	f.shop.Searcher = failingSearcher{}

	_, err := f.shop.Search(context.Background(), 1, "air")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.True(t, AlreadyLogged(err))
	assert.Contains(t, err.Error(), "cluster unavailable")
}

func TestAlreadyLogged(t *testing.T) {
	base := errors.New("boom")
	assert.False(t, AlreadyLogged(base))
	assert.True(t, AlreadyLogged(logged(base)))
	assert.True(t, AlreadyLogged(fmt.Errorf("wrap: %w", logged(base))))
	assert.ErrorIs(t, logged(base), base)
}

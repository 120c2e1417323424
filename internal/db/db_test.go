package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sneaker_shop/internal/models"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(context.Background(), "sqlite://file::memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	t.Cleanup(func() { _ = Close(gdb) })
	return gdb
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://u:p@localhost:5432/shop"))
	assert.True(t, IsPostgres("postgresql://localhost/shop"))
	assert.True(t, IsPostgres("host=localhost user=u dbname=shop"))
	assert.False(t, IsPostgres("sqlite://ecommerce.db"))
	assert.False(t, IsPostgres("file::memory:"))
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "sqlite://ecommerce.db", want: "ecommerce.db?_pragma=foreign_keys(1)"},
		{in: "file::memory:", want: "file::memory:?_pragma=foreign_keys(1)"},
		{in: "sqlite://shop.db?_pragma=busy_timeout(5000)", want: "shop.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"},
		{in: "shop.db?_pragma=foreign_keys(0)", want: "shop.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SQLiteDSN(tt.in), tt.in)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	dir := t.TempDir()
	gdb, err := Open(context.Background(), "sqlite://"+filepath.Join(dir, "shop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	sqlDB, err := gdb.DB()
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		var on int
		require.NoError(t, gdb.Raw("PRAGMA foreign_keys").Scan(&on).Error)
		assert.Equal(t, 1, on)

		// drop the pooled connection so the next query dials a fresh one
		sqlDB.SetMaxIdleConns(0)
		sqlDB.SetMaxIdleConns(1)
	}
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	gdb := openMemory(t)
	require.NoError(t, Migrate(gdb))
	require.NoError(t, Ping(context.Background(), gdb))
}

func TestUniqueEmail(t *testing.T) {
	gdb := openMemory(t)

	require.NoError(t, gdb.Create(&models.User{Name: "A", Email: "a@x.io", PasswordHash: "h"}).Error)
	err := gdb.Create(&models.User{Name: "B", Email: "a@x.io", PasswordHash: "h"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUniqueCartLine(t *testing.T) {
	gdb := openMemory(t)

	u := models.User{Name: "A", Email: "a@x.io", PasswordHash: "h"}
	p := models.Product{Name: "Shoe", Price: 10}
	require.NoError(t, gdb.Create(&u).Error)
	require.NoError(t, gdb.Create(&p).Error)

	require.NoError(t, gdb.Create(&models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}).Error)
	err := gdb.Create(&models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCascadeDelete(t *testing.T) {
	gdb := openMemory(t)

	u := models.User{Name: "A", Email: "a@x.io", PasswordHash: "h"}
	p1 := models.Product{Name: "One", Price: 10}
	p2 := models.Product{Name: "Two", Price: 20}
	require.NoError(t, gdb.Create(&u).Error)
	require.NoError(t, gdb.Create(&p1).Error)
	require.NoError(t, gdb.Create(&p2).Error)
	require.NoError(t, gdb.Create(&models.CartItem{UserID: u.ID, ProductID: p1.ID, Quantity: 1}).Error)
	require.NoError(t, gdb.Create(&models.CartItem{UserID: u.ID, ProductID: p2.ID, Quantity: 2}).Error)

	require.NoError(t, gdb.Delete(&models.Product{}, p1.ID).Error)
	var n int64
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.NoError(t, gdb.Delete(&models.User{}, u.ID).Error)
	require.NoError(t, gdb.Model(&models.CartItem{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

func TestQuantityMustBePositive(t *testing.T) {
	gdb := openMemory(t)

	u := models.User{Name: "A", Email: "a@x.io", PasswordHash: "h"}
	p := models.Product{Name: "Shoe", Price: 10}
	require.NoError(t, gdb.Create(&u).Error)
	require.NoError(t, gdb.Create(&p).Error)

	err := gdb.Create(&models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: -1}).Error
	require.Error(t, err)
}

package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sneaker_shop/internal/db"
	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
)

type recordingIndexer struct {
	got []models.Product
	err error
}

func (r *recordingIndexer) IndexProducts(_ context.Context, ps []models.Product) error {
	r.got = ps
	return r.err
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(context.Background(), "sqlite://file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func TestRun_SeedsOnce(t *testing.T) {
	gdb := openDB(t)
	ctx := context.Background()

	n, err := Run(ctx, gdb, nil, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = Run(ctx, gdb, nil, logging.Discard())
	require.NoError(t, err)
	assert.Zero(t, n)

	var products []models.Product
	require.NoError(t, gdb.Order("id").Find(&products).Error)
	require.Len(t, products, 3)
	assert.Equal(t, "Air Jordan 1 Retro", products[0].Name)
	assert.InDelta(t, 189.99, products[0].Price, 0.001)
	assert.Equal(t, "sneaker_3.JPG", products[2].ImageFile)
}

func TestRun_LeavesExistingCatalog(t *testing.T) {
	gdb := openDB(t)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, gdb.Create(&models.Product{Name: "Custom", Price: 1}).Error)

	n, err := Run(context.Background(), gdb, nil, logging.Discard())
	require.NoError(t, err)
	assert.Zero(t, n)

	var total int64
	require.NoError(t, gdb.Model(&models.Product{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestRun_IndexesCatalog(t *testing.T) {
	gdb := openDB(t)
	idx := &recordingIndexer{}

	_, err := Run(context.Background(), gdb, idx, logging.Discard())
	require.NoError(t, err)
	assert.Len(t, idx.got, 3)
}

func TestRun_IndexFailureIsNotFatal(t *testing.T) {
	gdb := openDB(t)
	idx := &recordingIndexer{err: errors.New("cluster down")}

	n, err := Run(context.Background(), gdb, idx, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

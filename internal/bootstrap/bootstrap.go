package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sneaker_shop/internal/db"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/repo"
	"github.com/Skotchmaster/sneaker_shop/internal/search"
)

// SampleCatalog is written to an empty products table on first start.
func SampleCatalog() []models.Product {
	return []models.Product{
		{
			Name:        "Air Jordan 1 Retro",
			Description: "Classic silhouette in a vibrant colorway. Must-have for collectors.",
			Price:       189.99,
			ImageFile:   "sneaker_1.JPG",
		},
		{
			Name:        "UltraBoost 21",
			Description: "The ultimate running experience with incredible energy return.",
			Price:       159.00,
			ImageFile:   "sneaker_2.JPG",
		},
		{
			Name:        "Nike Air Max 97",
			Description: "Iconic wave design with full-length Max Air cushioning.",
			Price:       175.50,
			ImageFile:   "sneaker_3.JPG",
		},
	}
}

// Run migrates the schema and seeds the catalog if it is empty. It returns
// the number of products written. indexer may be nil.
func Run(ctx context.Context, gdb *gorm.DB, indexer search.Indexer, log *slog.Logger) (int, error) {
	if err := db.Migrate(gdb); err != nil {
		return 0, err
	}

	r := repo.New(gdb)
	seeded, err := r.SeedProducts(ctx, SampleCatalog())
	if err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded > 0 {
		log.Info("catalog seeded", "products", seeded)
	} else {
		log.Info("catalog already present")
	}

	if indexer != nil {
		products, err := r.ListProducts(ctx)
		if err != nil {
			return seeded, fmt.Errorf("list catalog: %w", err)
		}
		if err := indexer.IndexProducts(ctx, products); err != nil {
			log.Warn("catalog_index", "status", "fail", "error", err)
		} else {
			log.Info("catalog_index", "status", "ok", "products", len(products))
		}
	}

	return seeded, nil
}

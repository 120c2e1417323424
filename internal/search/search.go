package search

import (
	"context"

	"github.com/Skotchmaster/sneaker_shop/internal/models"
)

const DefaultLimit = 20

// Searcher returns the ids of products matching query, best match first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]uint, error)
}

type Indexer interface {
	IndexProducts(ctx context.Context, products []models.Product) error
}

type productSearcher interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
}

// DBSearcher is used when no Elasticsearch cluster is configured.
type DBSearcher struct {
	Repo productSearcher
}

func (s DBSearcher) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	items, err := s.Repo.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	return ids, nil
}

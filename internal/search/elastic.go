package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"

	"github.com/Skotchmaster/sneaker_shop/internal/models"
)

type ClientConfig struct {
	URL      string
	User     string
	Password string
}

func NewClient(ctx context.Context, cfg ClientConfig, log *slog.Logger) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}

	log.Info("es_connect", "status", "ok", "url", cfg.URL)
	return client, nil
}

type ESSearcher struct {
	Client *elasticsearch.Client
	Index  string
}

type document struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func (s *ESSearcher) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"size":    limit,
		"_source": []string{"id"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(s.Index),
		s.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("search: decode: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

// IndexProducts (re)indexes products with the bulk API, one document per
// product keyed by its id. The indexer is closed on every path.
func (s *ESSearcher) IndexProducts(ctx context.Context, products []models.Product) error {
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: s.Client,
		Index:  s.Index,
	})
	if err != nil {
		return fmt.Errorf("index: new bulk indexer: %w", err)
	}

	closed := false
	defer func() {
		if !closed {
			_ = bi.Close(context.WithoutCancel(ctx))
		}
	}()

	for _, p := range products {
		data, err := json.Marshal(document{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price})
		if err != nil {
			return fmt.Errorf("index: encode product %d: %w", p.ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.FormatUint(uint64(p.ID), 10),
			Body:       bytes.NewReader(data),
		})
		if err != nil {
			return fmt.Errorf("index: add product %d: %w", p.ID, err)
		}
	}

	closed = true
	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("index: flush: %w", err)
	}
	if st := bi.Stats(); st.NumFailed > 0 {
		return fmt.Errorf("index: %d of %d documents failed", st.NumFailed, st.NumAdded)
	}
	return nil
}

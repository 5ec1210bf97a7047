package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/pkg/config"
)

var ErrDisabled = errors.New("search is not configured")

type Indexer interface {
	IndexProduct(ctx context.Context, p models.Product) error
}

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type Index struct {
	ES    *elasticsearch.Client
	Index string
}

func NewClient(cfg config.Config) (*elasticsearch.Client, error) {
	if cfg.ESURL == "" {
		return nil, ErrDisabled
	}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
}

func New(es *elasticsearch.Client, index string) *Index {
	return &Index{ES: es, Index: index}
}

type document struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

const mapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "description": {"type": "text"},
      "price":       {"type": "long"},
      "status":      {"type": "keyword"},
      "created_at":  {"type": "date"}
    }
  }
}`

// EnsureIndex creates the products index when it does not exist yet.
func (i *Index) EnsureIndex(ctx context.Context) error {
	res, err := i.ES.Indices.Exists([]string{i.Index}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("es: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = i.ES.Indices.Create(i.Index,
		i.ES.Indices.Create.WithContext(ctx),
		i.ES.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
	)
	if err != nil {
		return fmt.Errorf("es: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: create index: %s", res.Status())
	}
	return nil
}

func (i *Index) IndexProduct(ctx context.Context, p models.Product) error {
	body, err := json.Marshal(document{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	})
	if err != nil {
		return err
	}

	res, err := i.ES.Index(i.Index, bytes.NewReader(body),
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("es: index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("es: index product: %s: %s", res.Status(), msg)
	}
	return nil
}

// Search runs a fuzzy full text query and returns the matching product ids in
// relevance order.
func (i *Index) Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"from":    from,
		"size":    size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
		i.ES.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("es: search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode search: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return r.Hits.Total.Value, ids, nil
}

type Nop struct{}

func (Nop) IndexProduct(context.Context, models.Product) error { return nil }

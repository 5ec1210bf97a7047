package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/pkg/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func fakeES(t *testing.T, handle func(r *http.Request) (int, string)) *elasticsearch.Client {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://es.test:9200"},
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			status, body := handle(r)
			h := http.Header{}
			h.Set("X-Elastic-Product", "Elasticsearch")
			h.Set("Content-Type", "application/json")
			return &http.Response{
				StatusCode: status,
				Header:     h,
				Body:       io.NopCloser(strings.NewReader(body)),
				Request:    r,
			}, nil
		}),
	})
	require.NoError(t, err)
	return es
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(config.Config{})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSearch_ReturnsIDsInOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var sent map[string]any

	es := fakeES(t, func(r *http.Request) (int, string) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/products/_search"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
		return 200, `{"hits":{"total":{"value":2},"hits":[{"_source":{"id":"` + a.String() + `"}},{"_source":{"id":"` + b.String() + `"}}]}}`
	})

	total, ids, err := New(es, "products").Search(context.Background(), "sunset", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []uuid.UUID{a, b}, ids)

	mm := sent["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "sunset", mm["query"])
}

func TestIndexProduct_UsesDocumentID(t *testing.T) {
	p := models.Product{ID: uuid.New(), Title: "Sunset", Description: "oil", Price: 1000, Status: models.ProductAvailable}

	es := fakeES(t, func(r *http.Request) (int, string) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/products/_doc/"+p.ID.String(), r.URL.Path)
		return 201, `{"result":"created"}`
	})

	require.NoError(t, New(es, "products").IndexProduct(context.Background(), p))
}

func TestIndexProduct_ErrorStatus(t *testing.T) {
	es := fakeES(t, func(r *http.Request) (int, string) {
		return 400, `{"error":"bad"}`
	})
	err := New(es, "products").IndexProduct(context.Background(), models.Product{ID: uuid.New()})
	assert.Error(t, err)
}

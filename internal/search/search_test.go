package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

type fakeES struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Body: string(body)})
	f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r)
}

func newIndex(t *testing.T, h func(w http.ResponseWriter, r *http.Request)) (*ESIndex, *fakeES) {
	t.Helper()
	fake := &fakeES{handler: h}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewESIndex(client, "products"), fake
}

func TestIndexProduct(t *testing.T) {
	idx, fake := newIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	p := models.Product{ID: 4, Code: "SKU004", Name: "Potent snake oil", Price: decimal.RequireFromString("33.99")}
	require.NoError(t, idx.IndexProduct(context.Background(), p))

	require.Len(t, fake.requests, 1)
	req := fake.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/_doc/4", req.Path)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &doc))
	assert.Equal(t, "SKU004", doc["sku"])
	assert.Equal(t, "33.99", doc["price"])
}

func TestDeleteProductIgnoresMissing(t *testing.T) {
	idx, fake := newIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	})

	require.NoError(t, idx.DeleteProduct(context.Background(), 9))
	assert.Equal(t, "/products/_doc/9", fake.requests[0].Path)
	assert.Equal(t, http.MethodDelete, fake.requests[0].Method)
}

func TestSearch(t *testing.T) {
	idx, fake := newIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"pk": 3, "sku": "SKU003", "name": "Thick snake oil", "price": "27.99", "num_in_stock": 35}},
					{"_source": {"pk": 1, "sku": "SKU001", "name": "Clear snake oil", "price": "11.99", "num_in_stock": 108}}
				]
			}
		}`)
	})

	total, prods, err := idx.Search(context.Background(), "snake", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, prods, 2)
	assert.Equal(t, "SKU003", prods[0].Code)
	assert.Equal(t, uint(3), prods[0].ID)
	assert.Equal(t, "27.99", prods[0].Price.StringFixed(2))

	req := fake.requests[0]
	assert.Equal(t, "/products/_search", req.Path)
	assert.True(t, strings.Contains(req.Body, `"multi_match"`))
	assert.True(t, strings.Contains(req.Body, `"query":"snake"`))
}

func TestSearchErrorStatus(t *testing.T) {
	idx, _ := newIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"parsing_exception"}`)
	})

	_, _, err := idx.Search(context.Background(), "snake", 0, 10)
	require.ErrorIs(t, err, ErrIndex)
	assert.Contains(t, err.Error(), "parsing_exception")
}

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/service"
	"github.com/Skotchmaster/snakeoil/internal/transport"
)

func TestProductAPIList(t *testing.T) {
	s := newTestServer(t, options{})

	rec := s.get("/api/v1/products?page=2&size=3")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[transport.ProductListResponse](t, rec)
	require.Len(t, res.Data, 1)
	assert.Equal(t, 2, res.Meta.Page)
	assert.Equal(t, 3, res.Meta.Size)
	assert.Equal(t, int64(4), res.Meta.Total)
	assert.True(t, res.Meta.HasPrev)
	assert.False(t, res.Meta.HasNext)

	rec = s.get("/api/v1/products?page=9")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[transport.ProductListResponse](t, rec).Data)
}

func TestProductAPISearch(t *testing.T) {
	s := newTestServer(t, options{})

	rec := s.get("/api/v1/products/search?q=thick")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[transport.ProductListResponse](t, rec)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "SKU003", res.Data[0].Code)

	rec = s.get("/api/v1/products/search")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[transport.FieldErrorsResponse](t, rec).Errors, "q")
}

func TestProductAPIGet(t *testing.T) {
	s := newTestServer(t, options{})
	potent := s.products["SKU004"]

	rec := s.get(fmt.Sprintf("/api/v1/products/%d", potent.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Product](t, rec)
	assert.Equal(t, "Potent snake oil", got.Name)
	assert.Equal(t, "33.99", got.Price.StringFixed(2))

	assert.Equal(t, http.StatusNotFound, s.get("/api/v1/products/999").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/v1/products/abc").Code)
}

func TestProductAPIPatch(t *testing.T) {
	s := newTestServer(t, options{})
	thick := s.products["SKU003"]
	path := fmt.Sprintf("/api/v1/products/%d", thick.ID)
	body := `{"price": "25.00", "num_in_stock": 40}`

	assert.Equal(t, http.StatusUnauthorized, s.sendJSON(http.MethodPatch, path, body).Code)
	assert.Equal(t, http.StatusForbidden, s.sendJSON(http.MethodPatch, path, body, s.login(t, service.ManagerUsername)).Code)

	staff := s.login(t, service.StaffUsername)
	rec := s.sendJSON(http.MethodPatch, path, body, staff)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.Product](t, rec)
	assert.Equal(t, "25.00", got.Price.StringFixed(2))
	assert.Equal(t, 40, got.NumInStock)
	assert.Equal(t, thick.Name, got.Name)

	rec = s.sendJSON(http.MethodPatch, path, `{"price": "-3"}`, staff)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[transport.FieldErrorsResponse](t, rec).Errors, "price")

	rec = s.sendJSON(http.MethodPatch, "/api/v1/products/999", body, staff)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductAPIDelete(t *testing.T) {
	s := newTestServer(t, options{})
	turbid := s.products["SKU002"]
	path := fmt.Sprintf("/api/v1/products/%d", turbid.ID)

	customer := s.login(t, service.CustomerUsernames[0])
	rec := s.sendJSON(http.MethodPost, "/cart/add/", fmt.Sprintf(`{"pk": %d}`, turbid.ID), customer)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusForbidden, s.sendJSON(http.MethodDelete, path, "", customer).Code)

	staff := s.login(t, service.StaffUsername)
	rec = s.sendJSON(http.MethodDelete, path, "", staff)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err := s.store.GetProduct(context.Background(), turbid.ID)
	require.Error(t, err)
	assert.Contains(t, s.events.Types(), events.ProductDeleted)

	cart := decode[transport.CartResponse](t, s.get("/api/v1/cart", customer))
	assert.Empty(t, cart.Lines)

	assert.Equal(t, http.StatusNotFound, s.sendJSON(http.MethodDelete, path, "", staff).Code)
}

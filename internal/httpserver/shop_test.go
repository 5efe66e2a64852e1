package httpserver

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

func TestPagesByRole(t *testing.T) {
	s := newTestServer(t, options{})

	tests := []struct {
		username   string
		manageCode int
	}{
		{service.CustomerUsernames[0], http.StatusFound},
		{service.ManagerUsername, http.StatusOK},
		{service.StaffUsername, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			ck := s.login(t, tt.username)

			assert.Equal(t, http.StatusOK, s.get("/", ck).Code)
			assert.Equal(t, http.StatusOK, s.get("/cart/", ck).Code)

			rec := s.get("/manage/products/", ck)
			assert.Equal(t, tt.manageCode, rec.Code)
			if tt.manageCode == http.StatusFound {
				assert.Equal(t, "/login/?next=%2Fmanage%2Fproducts%2F", rec.Header().Get("Location"))
			}
		})
	}
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	s := newTestServer(t, options{})

	for _, path := range []string{"/", "/cart/", "/cart/clear/", "/manage/products/"} {
		rec := s.get(path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login/?next="+url.QueryEscape(path), rec.Header().Get("Location"))
	}
}

func TestManageForbiddenMode(t *testing.T) {
	s := newTestServer(t, options{mode: access.DenyWithForbid})

	rec := s.get("/manage/products/", s.login(t, service.CustomerUsernames[1]))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.get("/manage/products/")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestShopDefaultView(t *testing.T) {
	s := newTestServer(t, options{})
	ck := s.login(t, service.CustomerUsernames[0])

	rec := s.get("/", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assertOrder(t, body, "Clear snake oil", "Potent snake oil", "Thick snake oil", "Turbid snake oil")
	assert.Contains(t, body, "0 items | 0.00 €")
}

func TestShopSearch(t *testing.T) {
	s := newTestServer(t, options{})
	ck := s.login(t, service.CustomerUsernames[0])

	rec := s.postForm("/", url.Values{"search_string": {"OIL"}, "sort_by": {"-price"}}, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assertOrder(t, body, "Potent snake oil", "Thick snake oil", "Turbid snake oil", "Clear snake oil")

	rec = s.get("/?search_string=sku002&sort_by=name", ck)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Turbid snake oil")
	assert.NotContains(t, body, "Clear snake oil")
}

func TestShopSearchInvalidSort(t *testing.T) {
	s := newTestServer(t, options{})
	ck := s.login(t, service.CustomerUsernames[0])

	rec := s.postForm("/", url.Values{"search_string": {""}, "sort_by": {"num_in_stock"}}, ck)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "num_in_stock is not one of the available choices")
	assert.Contains(t, body, "No products found.")
}

func assertOrder(t *testing.T, body string, names ...string) {
	t.Helper()
	last := -1
	for _, n := range names {
		i := strings.Index(body, n)
		require.GreaterOrEqual(t, i, 0, "%q missing", n)
		require.Greater(t, i, last, "%q out of order", n)
		last = i
	}
}

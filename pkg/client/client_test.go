package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "tea", r.URL.Query().Get("search"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []map[string]string{{"name": "Green tea"}},
			"pagination": map[string]interface{}{
				"currentPage": 1, "totalPages": 3, "totalItems": 37, "limit": 15,
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-123")

	var items []struct {
		Name string `json:"name"`
	}
	env, err := c.Get(context.Background(), "/api/v1/products", url.Values{"search": {"tea"}}, &items)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Green tea", items[0].Name)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.Equal(t, int64(37), env.Pagination.TotalItems)
}

func TestPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Box", body["name"])
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": body})
	}))
	defer srv.Close()

	var created map[string]string
	_, err := New(srv.URL).Post(context.Background(), "/api/v1/units", map[string]string{"name": "Box"}, &created)
	require.NoError(t, err)
	assert.Equal(t, "Box", created["name"])
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "SKU already in use",
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Post(context.Background(), "/api/v1/products", map[string]string{}, nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "SKU already in use", apiErr.Message)
}

func TestUnauthorizedClearsTokenAndFiresCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Invalid token"})
	}))
	defer srv.Close()

	fired := 0
	c := New(srv.URL, WithOnUnauthorized(func() { fired++ }))
	c.SetToken("stale")

	_, err := c.Get(context.Background(), "/api/v1/auth/me", nil, nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Empty(t, c.Token())
	assert.Equal(t, 1, fired)
}

func TestDownloadReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK\x03\x04fake-xlsx"))
	}))
	defer srv.Close()

	data, err := New(srv.URL).Download(context.Background(), "/api/v1/products/export", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04fake-xlsx"), data)
}

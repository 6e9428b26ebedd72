package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchMissingAPIKey(t *testing.T) {
	c := NewClient(&Config{})

	result := c.Search(context.Background(), "gradient descent", 5)
	require.False(t, result.OK)
	require.Empty(t, result.Results)
	require.NotEmpty(t, result.Error)
}

func TestSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "tvly-test", req.APIKey)
		require.Equal(t, "gradient descent", req.Query)
		require.Equal(t, 5, req.MaxResults)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Gradient Descent", "url": "https://example.com/gd", "content": "An optimization method."},
				{"title": "No URL entry", "url": "", "content": "should still be returned"},
			},
		})
	}))
	defer server.Close()

	c := NewClient(&Config{APIKey: "tvly-test", BaseURL: server.URL})

	result := c.Search(context.Background(), "gradient descent", 0) // 0 -> default 5
	require.True(t, result.OK)
	require.Len(t, result.Results, 2)
	require.Equal(t, "https://example.com/gd", result.Results[0].URL)
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(&Config{APIKey: "tvly-test", BaseURL: server.URL})

	result := c.Search(context.Background(), "anything", 5)
	require.False(t, result.OK)
	require.Contains(t, result.Error, "status 500")
}

func TestSearchUnreachableHost(t *testing.T) {
	c := NewClient(&Config{APIKey: "tvly-test", BaseURL: "http://127.0.0.1:1"})

	result := c.Search(context.Background(), "anything", 5)
	require.False(t, result.OK)
	require.NotEmpty(t, result.Error)
}

// Package websearch provides the Tavily-compatible web search client used as
// the fallback retrieval path when course documents have no answer.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// SearchResult is one normalized web search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Result is the outcome of one search call. Failures are reported in-band
// via OK=false; Search never returns a Go error.
type Result struct {
	OK      bool           `json:"ok"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// Client is the web search client interface.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) *Result
}

// Config represents web search client configuration.
type Config struct {
	APIKey  string
	BaseURL string // default: https://api.tavily.com
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new web search client.
func NewClient(cfg *Config) Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		// The search API is a paid external dependency; keep bursts in check.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func (c *client) Search(ctx context.Context, query string, maxResults int) *Result {
	if c.apiKey == "" {
		return &Result{OK: false, Results: []SearchResult{}, Error: "missing web search API key"}
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return failure(fmt.Sprintf("rate limit wait: %v", err))
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return failure(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return failure(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("websearch: request failed", "error", err)
		return failure(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("websearch: non-OK status", "status", resp.StatusCode)
		return failure(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return failure(fmt.Sprintf("decode response: %v", err))
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
		})
	}

	slog.Debug("websearch: search completed", "query_length", len(query), "results", len(results))
	return &Result{OK: true, Results: results}
}

func failure(msg string) *Result {
	return &Result{OK: false, Results: []SearchResult{}, Error: msg}
}

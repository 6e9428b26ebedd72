// Package memory provides the long-term memory service: short text facts
// stored with embeddings and recalled by semantic similarity.
package memory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/store"
)

// SnippetStore is the storage surface the memory service needs.
// *store.Store satisfies it.
type SnippetStore interface {
	CreateMemorySnippet(ctx context.Context, create *store.MemorySnippet) (*store.MemorySnippet, error)
	MemoryVectorSearch(ctx context.Context, opts *store.MemoryVectorSearchOptions) ([]*store.MemorySnippetWithScore, error)
}

// RecallResult distinguishes "nothing matched" from "the store failed".
// Callers treat both as an empty memory block, but the degraded case is
// logged and counted separately.
type RecallResult struct {
	Snippets []string
	Degraded bool
}

// Service is the long-term memory service interface.
type Service interface {
	// Recall returns up to k snippets relevant to the query. It never
	// returns an error: store failures degrade to an empty, degraded result.
	Recall(ctx context.Context, query string, k int) RecallResult

	// Store persists one memory snippet. Returns false on empty input or
	// internal failure; never returns an error.
	Store(ctx context.Context, text string) bool
}

type service struct {
	snippets SnippetStore
	embedder embedding.Service
	model    string
}

// NewService creates a new memory Service.
func NewService(snippets SnippetStore, embedder embedding.Service, model string) Service {
	return &service{
		snippets: snippets,
		embedder: embedder,
		model:    model,
	}
}

func (s *service) Recall(ctx context.Context, query string, k int) RecallResult {
	if strings.TrimSpace(query) == "" {
		return RecallResult{}
	}
	if k <= 0 {
		k = 3
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("memory: recall embedding failed, degrading to empty", "error", err)
		return RecallResult{Degraded: true}
	}

	results, err := s.snippets.MemoryVectorSearch(ctx, &store.MemoryVectorSearchOptions{
		Vector: vector,
		Limit:  k,
	})
	if err != nil {
		slog.Warn("memory: vector search failed, degrading to empty", "error", err)
		return RecallResult{Degraded: true}
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, r.Snippet.Content)
	}
	return RecallResult{Snippets: snippets}
}

func (s *service) Store(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		slog.Warn("memory: store embedding failed, dropping snippet", "error", err)
		return false
	}

	_, err = s.snippets.CreateMemorySnippet(ctx, &store.MemorySnippet{
		UID:       shortuuid.New(),
		Content:   text,
		Model:     s.model,
		Embedding: vector,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("memory: snippet write failed, dropping snippet", "error", err)
		return false
	}

	slog.Debug("memory: snippet stored", "length", len(text))
	return true
}

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/mlmentor/mlmentor/ai"
	"github.com/mlmentor/mlmentor/ai/assistant"
	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/ai/memory"
	"github.com/mlmentor/mlmentor/ai/metrics"
	"github.com/mlmentor/mlmentor/ai/quiz"
	"github.com/mlmentor/mlmentor/ai/retrieval"
	"github.com/mlmentor/mlmentor/ai/routing"
	"github.com/mlmentor/mlmentor/ai/websearch"
	"github.com/mlmentor/mlmentor/internal/profile"
	"github.com/mlmentor/mlmentor/store"
)

// buildGraph assembles the assistant graph from the profile. Returns nil when
// AI is not configured; the server then serves chats without a working
// assistant.
func buildGraph(ctx context.Context, p *profile.Profile, st *store.Store, exporter *metrics.PrometheusExporter) *assistant.Graph {
	cfg := ai.NewConfigFromProfile(p)
	if !cfg.Enabled {
		slog.Warn("AI is not configured, assistant endpoints will reply 503",
			"hint", "set MLMENTOR_AI_LLM_API_KEY")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid AI configuration", "error", err)
		return nil
	}

	llmService, err := llm.NewService(&cfg.LLM)
	if err != nil {
		slog.Error("failed to create LLM service", "error", err)
		return nil
	}
	intentService, err := llm.NewService(&cfg.Intent)
	if err != nil {
		slog.Error("failed to create intent LLM service", "error", err)
		return nil
	}
	embedder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		slog.Error("failed to create embedding service", "error", err)
		return nil
	}

	// Warm up asynchronously to shave latency off the first turn.
	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		llmService.Warmup(warmupCtx)
	}()

	graph, err := assistant.NewGraph(&assistant.Config{
		LLM:        llmService,
		Classifier: routing.NewClassifier(intentService),
		Memory:     memory.NewService(st, embedder, p.EmbeddingModel),
		Docs:       retrieval.NewSearcher(st, embedder),
		Web: websearch.NewClient(&websearch.Config{
			APIKey:  p.WebSearchAPIKey,
			BaseURL: p.WebSearchBaseURL,
		}),
		Quiz:    quiz.NewGenerator(llmService, st),
		Metrics: exporter,
	})
	if err != nil {
		slog.Error("failed to build assistant graph", "error", err)
		return nil
	}

	slog.Info("assistant graph initialized",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"intent_model", cfg.Intent.Model,
		"embedding_model", cfg.Embedding.Model,
	)
	return graph
}

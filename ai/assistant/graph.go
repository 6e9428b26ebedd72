package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/ai/memory"
	"github.com/mlmentor/mlmentor/ai/metrics"
	"github.com/mlmentor/mlmentor/ai/quiz"
	"github.com/mlmentor/mlmentor/ai/retrieval"
	"github.com/mlmentor/mlmentor/ai/routing"
	"github.com/mlmentor/mlmentor/ai/websearch"
)

// Config wires the graph's collaborators. All fields except Metrics are
// required.
type Config struct {
	LLM        llm.Service
	Classifier routing.Classifier
	Memory     memory.Service
	Docs       retrieval.Searcher
	Web        websearch.Client
	Quiz       quiz.Generator
	Metrics    *metrics.PrometheusExporter
}

// Graph runs one conversation turn through the fixed node topology:
// memory recall → router → one generator → memory write. Each Run owns its
// State exclusively; a single Graph may serve concurrent turns.
type Graph struct {
	llm        llm.Service
	classifier routing.Classifier
	memory     memory.Service
	docs       retrieval.Searcher
	web        websearch.Client
	quiz       quiz.Generator
	metrics    *metrics.PrometheusExporter
}

// NewGraph validates the configuration and builds a Graph.
func NewGraph(cfg *Config) (*Graph, error) {
	switch {
	case cfg == nil:
		return nil, errors.New("config is required")
	case cfg.LLM == nil:
		return nil, errors.New("llm service is required")
	case cfg.Classifier == nil:
		return nil, errors.New("classifier is required")
	case cfg.Memory == nil:
		return nil, errors.New("memory service is required")
	case cfg.Docs == nil:
		return nil, errors.New("docs searcher is required")
	case cfg.Web == nil:
		return nil, errors.New("web search client is required")
	case cfg.Quiz == nil:
		return nil, errors.New("quiz generator is required")
	}

	return &Graph{
		llm:        cfg.LLM,
		classifier: cfg.Classifier,
		memory:     cfg.Memory,
		docs:       cfg.Docs,
		web:        cfg.Web,
		quiz:       cfg.Quiz,
		metrics:    cfg.Metrics,
	}, nil
}

// Run processes one turn: state must end with exactly one new user message.
// On success the same state carries exactly one appended assistant message.
// On error the state's messages are unchanged and nothing is persisted.
func (g *Graph) Run(ctx context.Context, state *State) error {
	if len(state.Messages) == 0 {
		return errors.New("empty conversation state")
	}

	start := time.Now()

	g.recallMemory(ctx, state)
	g.routeTurn(ctx, state)

	generate, ok := g.generators()[state.Route]
	if !ok {
		state.Route = routing.DefaultRoute
		generate = g.answerGeneral
	}

	if err := generate(ctx, state); err != nil {
		g.recordTurn(string(state.Route), time.Since(start), false)
		return fmt.Errorf("generate answer (route %s): %w", state.Route, err)
	}

	g.writeMemory(ctx, state)
	g.recordTurn(string(state.Route), time.Since(start), true)
	return nil
}

func (g *Graph) generators() map[routing.Route]func(context.Context, *State) error {
	return map[routing.Route]func(context.Context, *State) error{
		routing.RouteRAG:     g.answerRAG,
		routing.RouteGeneral: g.answerGeneral,
		routing.RouteQuiz:    g.answerQuiz,
	}
}

// generate calls the model with a system prompt plus the windowed history,
// recording token and latency metrics.
func (g *Graph) generate(ctx context.Context, system string, state *State) (string, error) {
	msgs := make([]llm.Message, 0, len(state.Messages)+1)
	msgs = append(msgs, llm.SystemPrompt(system))
	for _, m := range state.window() {
		msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	content, stats, err := g.llm.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	if g.metrics != nil && stats != nil {
		g.metrics.RecordLLMTokens("chat", "prompt", stats.PromptTokens)
		g.metrics.RecordLLMTokens("chat", "completion", stats.CompletionTokens)
		g.metrics.RecordLLMLatency("chat", time.Duration(stats.TotalDurationMs)*time.Millisecond)
	}
	return content, nil
}

func (g *Graph) recordTurn(route string, latency time.Duration, success bool) {
	if g.metrics != nil {
		g.metrics.RecordTurn(route, latency, success)
	}
}

func (g *Graph) recordWebFallback() {
	if g.metrics != nil {
		g.metrics.RecordWebFallback()
	}
}

func (g *Graph) recordMemoryRecall(result string) {
	if g.metrics != nil {
		g.metrics.RecordMemoryRecall(result)
	}
}

func (g *Graph) recordMemoryWrite(trigger string) {
	if g.metrics != nil {
		g.metrics.RecordMemoryWrite(trigger)
	}
}

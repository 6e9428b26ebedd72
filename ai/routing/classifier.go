// Package routing classifies student messages into answer routes.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mlmentor/mlmentor/ai/core/llm"
)

// Route is the label selecting which answer generator handles a turn.
type Route string

const (
	RouteRAG     Route = "rag_query"
	RouteGeneral Route = "general_explanation"
	RouteQuiz    Route = "quiz_request"
)

// DefaultRoute is used when classification yields an unknown label.
const DefaultRoute = RouteGeneral

// Classification is the classifier output for one utterance.
type Classification struct {
	Route   Route
	Chapter string // optional topic tag, used by the quiz path
}

// Classifier maps a user utterance to a route plus optional chapter tag.
type Classifier interface {
	Classify(ctx context.Context, input string) (*Classification, error)
}

// ParseRoute normalizes a raw label to one of the known routes.
// Unknown or empty labels fall back to DefaultRoute.
func ParseRoute(raw string) Route {
	switch Route(strings.ToLower(strings.TrimSpace(raw))) {
	case RouteRAG:
		return RouteRAG
	case RouteGeneral:
		return RouteGeneral
	case RouteQuiz:
		return RouteQuiz
	default:
		return DefaultRoute
	}
}

// Layer 1: rule patterns. High-precision only; everything ambiguous goes to
// the LLM layer.
var (
	quizPattern    = regexp.MustCompile(`(?i)\b(quiz|quizz?es|test me|practice questions?)\b`)
	chapterPattern = regexp.MustCompile(`(?i)\bchapter\s+(\d+)\b`)
)

type classifier struct {
	llm llm.Service
}

// NewClassifier creates a two-layer Classifier: rule matching first, then an
// LLM call for everything the rules cannot decide.
func NewClassifier(llmService llm.Service) Classifier {
	return &classifier{llm: llmService}
}

func (c *classifier) Classify(ctx context.Context, input string) (*Classification, error) {
	if result := ruleClassify(input); result != nil {
		slog.Debug("routing: rule match", "route", result.Route, "chapter", result.Chapter)
		return result, nil
	}
	return c.llmClassify(ctx, input)
}

func ruleClassify(input string) *Classification {
	if !quizPattern.MatchString(input) {
		return nil
	}
	result := &Classification{Route: RouteQuiz}
	if m := chapterPattern.FindStringSubmatch(input); m != nil {
		result.Chapter = m[1]
	}
	return result
}

const classifySystemPrompt = `You classify a student's message to a Machine Learning course assistant.
Respond with ONLY a JSON object, no prose:
{"type": "<rag_query|general_explanation|quiz_request>", "chapter": "<number or empty>"}

- "rag_query": the question is about the course content or materials.
- "general_explanation": a general ML question or conversation.
- "quiz_request": the student asks to be quizzed or tested.
- "chapter": the chapter number if one is mentioned, otherwise "".`

func (c *classifier) llmClassify(ctx context.Context, input string) (*Classification, error) {
	content, _, err := c.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(classifySystemPrompt),
		llm.UserMessage(input),
	})
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}

	result, err := parseClassification(content)
	if err != nil {
		slog.Warn("routing: unparseable classifier output, defaulting", "output", content, "error", err)
		return &Classification{Route: DefaultRoute}, nil
	}
	return result, nil
}

// parseClassification extracts the JSON object from model output, tolerating
// surrounding prose and code fences.
func parseClassification(content string) (*Classification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in output")
	}

	var raw struct {
		Type    string `json:"type"`
		Chapter any    `json:"chapter"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("unmarshal classification: %w", err)
	}

	chapter := ""
	switch v := raw.Chapter.(type) {
	case string:
		chapter = strings.TrimSpace(v)
	case float64:
		chapter = fmt.Sprintf("%d", int(v))
	}
	if strings.EqualFold(chapter, "null") || strings.EqualFold(chapter, "none") {
		chapter = ""
	}

	return &Classification{Route: ParseRoute(raw.Type), Chapter: chapter}, nil
}

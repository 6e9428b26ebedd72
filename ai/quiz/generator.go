// Package quiz generates chapter-scoped practice quizzes.
package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/store"
)

// DefaultQuestions is the question count used when the caller passes 0.
const DefaultQuestions = 5

// ChunkLister lists stored course chunks. *store.Store satisfies it.
type ChunkLister interface {
	ListCourseChunks(ctx context.Context, find *store.FindCourseChunk) ([]*store.CourseChunk, error)
}

// Generator produces quiz text.
type Generator interface {
	// Generate returns a formatted quiz. chapter may be empty, in which case
	// the quiz covers the whole course.
	Generate(ctx context.Context, chapter string, nQuestions int) (string, error)
}

type generator struct {
	llm    llm.Service
	chunks ChunkLister
}

// NewGenerator creates a quiz Generator. chunks may be nil; then quizzes are
// generated from the model's own knowledge only.
func NewGenerator(llmService llm.Service, chunks ChunkLister) Generator {
	return &generator{llm: llmService, chunks: chunks}
}

const quizSystemPrompt = `You are a Machine Learning course assistant that writes practice quizzes.
Write clear multiple-choice questions with four options (A-D) each.
After all questions, include an "Answers:" section listing the correct option per question.`

func (g *generator) Generate(ctx context.Context, chapter string, nQuestions int) (string, error) {
	if nQuestions <= 0 {
		nQuestions = DefaultQuestions
	}

	scope := "the whole Machine Learning course"
	if chapter != "" {
		scope = fmt.Sprintf("chapter %s of the Machine Learning course", chapter)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a quiz of exactly %d questions about %s.", nQuestions, scope)

	if excerpts := g.courseExcerpts(ctx, chapter); excerpts != "" {
		b.WriteString("\n\nBase the questions on these course excerpts:\n\n")
		b.WriteString(excerpts)
	}

	content, _, err := g.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(quizSystemPrompt),
		llm.UserMessage(b.String()),
	})
	if err != nil {
		return "", fmt.Errorf("generate quiz: %w", err)
	}
	return content, nil
}

// courseExcerpts fetches chapter material to ground the quiz on. Best-effort:
// an unavailable chunk store just means an ungrounded quiz.
func (g *generator) courseExcerpts(ctx context.Context, chapter string) string {
	if g.chunks == nil || chapter == "" {
		return ""
	}

	list, err := g.chunks.ListCourseChunks(ctx, &store.FindCourseChunk{Chapter: &chapter, Limit: 4})
	if err != nil {
		slog.Warn("quiz: listing course chunks failed", "chapter", chapter, "error", err)
		return ""
	}

	parts := make([]string, 0, len(list))
	for _, c := range list {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

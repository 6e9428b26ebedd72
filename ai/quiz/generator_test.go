package quiz

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/store"
)

type fakeLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	f.messages = messages
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, &llm.CallStats{TotalTokens: 42}, nil
}

func (f *fakeLLM) Warmup(ctx context.Context) {}

type fakeChunkLister struct {
	chunks   []*store.CourseChunk
	err      error
	lastFind *store.FindCourseChunk
}

func (f *fakeChunkLister) ListCourseChunks(ctx context.Context, find *store.FindCourseChunk) ([]*store.CourseChunk, error) {
	f.lastFind = find
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func TestGenerateWithChapter(t *testing.T) {
	llmService := &fakeLLM{reply: "1. What is overfitting?\n\nAnswers: 1. B"}
	chunks := &fakeChunkLister{
		chunks: []*store.CourseChunk{{Chapter: "3", Content: "Regularization penalizes complexity."}},
	}
	g := NewGenerator(llmService, chunks)

	quiz, err := g.Generate(context.Background(), "3", 5)
	require.NoError(t, err)
	require.Equal(t, "1. What is overfitting?\n\nAnswers: 1. B", quiz)

	require.NotNil(t, chunks.lastFind)
	require.Equal(t, "3", *chunks.lastFind.Chapter)

	require.Len(t, llmService.messages, 2)
	require.Equal(t, "system", llmService.messages[0].Role)
	require.Contains(t, llmService.messages[1].Content, "exactly 5 questions")
	require.Contains(t, llmService.messages[1].Content, "chapter 3")
	require.Contains(t, llmService.messages[1].Content, "Regularization penalizes complexity.")
}

func TestGenerateWithoutChapter(t *testing.T) {
	llmService := &fakeLLM{reply: "quiz text"}
	chunks := &fakeChunkLister{}
	g := NewGenerator(llmService, chunks)

	_, err := g.Generate(context.Background(), "", 0)
	require.NoError(t, err)
	require.Nil(t, chunks.lastFind, "no chapter means no chunk lookup")
	require.Contains(t, llmService.messages[1].Content, "exactly 5 questions")
	require.Contains(t, llmService.messages[1].Content, "whole Machine Learning course")
}

func TestGenerateChunkStoreFailureIsBestEffort(t *testing.T) {
	llmService := &fakeLLM{reply: "quiz text"}
	chunks := &fakeChunkLister{err: errors.New("not supported in SQLite")}
	g := NewGenerator(llmService, chunks)

	quiz, err := g.Generate(context.Background(), "2", 5)
	require.NoError(t, err)
	require.Equal(t, "quiz text", quiz)
}

func TestGenerateLLMFailurePropagates(t *testing.T) {
	g := NewGenerator(&fakeLLM{err: errors.New("rate limited")}, nil)

	_, err := g.Generate(context.Background(), "1", 5)
	require.Error(t, err)
}

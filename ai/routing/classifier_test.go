package routing

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mlmentor/mlmentor/ai/core/llm"
)

type fakeLLM struct {
	reply  string
	err    error
	called bool
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	f.called = true
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, nil, nil
}

func (f *fakeLLM) Warmup(ctx context.Context) {}

func TestParseRoute(t *testing.T) {
	require.Equal(t, RouteRAG, ParseRoute("rag_query"))
	require.Equal(t, RouteQuiz, ParseRoute("  Quiz_Request "))
	require.Equal(t, RouteGeneral, ParseRoute("general_explanation"))
	require.Equal(t, DefaultRoute, ParseRoute("something_else"))
	require.Equal(t, DefaultRoute, ParseRoute(""))
}

func TestRuleClassifiesQuizWithChapter(t *testing.T) {
	model := &fakeLLM{}
	c := NewClassifier(model)

	result, err := c.Classify(context.Background(), "Give me a quiz on chapter 3")
	require.NoError(t, err)
	require.Equal(t, RouteQuiz, result.Route)
	require.Equal(t, "3", result.Chapter)
	require.False(t, model.called, "rule layer must not reach the LLM")
}

func TestRuleClassifiesQuizWithoutChapter(t *testing.T) {
	c := NewClassifier(&fakeLLM{})

	result, err := c.Classify(context.Background(), "test me on regularization please")
	require.NoError(t, err)
	require.Equal(t, RouteQuiz, result.Route)
	require.Empty(t, result.Chapter)
}

func TestLLMClassification(t *testing.T) {
	model := &fakeLLM{reply: `{"type": "rag_query", "chapter": ""}`}
	c := NewClassifier(model)

	result, err := c.Classify(context.Background(), "What does the course say about gradient descent?")
	require.NoError(t, err)
	require.Equal(t, RouteRAG, result.Route)
	require.True(t, model.called)
}

func TestLLMClassificationWithFencesAndNumericChapter(t *testing.T) {
	model := &fakeLLM{reply: "```json\n{\"type\": \"quiz_request\", \"chapter\": 2}\n```"}
	c := NewClassifier(model)

	result, err := c.Classify(context.Background(), "examine my knowledge of the second part")
	require.NoError(t, err)
	require.Equal(t, RouteQuiz, result.Route)
	require.Equal(t, "2", result.Chapter)
}

func TestLLMUnknownLabelDefaults(t *testing.T) {
	model := &fakeLLM{reply: `{"type": "banter", "chapter": null}`}
	c := NewClassifier(model)

	result, err := c.Classify(context.Background(), "hey there")
	require.NoError(t, err)
	require.Equal(t, DefaultRoute, result.Route)
	require.Empty(t, result.Chapter)
}

func TestLLMGarbageOutputDefaults(t *testing.T) {
	model := &fakeLLM{reply: "I think this is a general question."}
	c := NewClassifier(model)

	result, err := c.Classify(context.Background(), "what is AI?")
	require.NoError(t, err)
	require.Equal(t, DefaultRoute, result.Route)
}

func TestLLMFailurePropagates(t *testing.T) {
	c := NewClassifier(&fakeLLM{err: errors.New("provider down")})

	_, err := c.Classify(context.Background(), "what is AI?")
	require.Error(t, err)
}

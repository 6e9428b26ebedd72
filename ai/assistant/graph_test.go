package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mlmentor/mlmentor/ai/core/llm"
	"github.com/mlmentor/mlmentor/ai/memory"
	"github.com/mlmentor/mlmentor/ai/routing"
	"github.com/mlmentor/mlmentor/ai/websearch"
)

type fakeLLM struct {
	reply string
	err   error
	calls [][]llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	f.calls = append(f.calls, messages)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.reply, &llm.CallStats{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, nil
}

func (f *fakeLLM) Warmup(ctx context.Context) {}

func (f *fakeLLM) lastSystemPrompt() string {
	if len(f.calls) == 0 {
		return ""
	}
	last := f.calls[len(f.calls)-1]
	if len(last) == 0 || last[0].Role != "system" {
		return ""
	}
	return last[0].Content
}

type fakeClassifier struct {
	result *routing.Classification
	err    error
	input  string
}

func (f *fakeClassifier) Classify(ctx context.Context, input string) (*routing.Classification, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeMemory struct {
	recall memory.RecallResult
	stored []string
	fail   bool
}

func (f *fakeMemory) Recall(ctx context.Context, query string, k int) memory.RecallResult {
	return f.recall
}

func (f *fakeMemory) Store(ctx context.Context, text string) bool {
	if f.fail || strings.TrimSpace(text) == "" {
		return false
	}
	f.stored = append(f.stored, text)
	return true
}

type fakeDocs struct {
	text string
	err  error
}

func (f *fakeDocs) Search(ctx context.Context, query string) (string, error) {
	return f.text, f.err
}

type fakeWeb struct {
	result         *websearch.Result
	called         bool
	lastMaxResults int
}

func (f *fakeWeb) Search(ctx context.Context, query string, maxResults int) *websearch.Result {
	f.called = true
	f.lastMaxResults = maxResults
	if f.result != nil {
		return f.result
	}
	return &websearch.Result{OK: false, Error: "no fake result configured"}
}

type fakeQuiz struct {
	text        string
	err         error
	lastChapter string
	lastN       int
}

func (f *fakeQuiz) Generate(ctx context.Context, chapter string, nQuestions int) (string, error) {
	f.lastChapter = chapter
	f.lastN = nQuestions
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type graphFixture struct {
	llm        *fakeLLM
	classifier *fakeClassifier
	memory     *fakeMemory
	docs       *fakeDocs
	web        *fakeWeb
	quiz       *fakeQuiz
	graph      *Graph
}

func newFixture(t *testing.T) *graphFixture {
	t.Helper()
	f := &graphFixture{
		llm:        &fakeLLM{reply: "short answer"},
		classifier: &fakeClassifier{result: &routing.Classification{Route: routing.RouteGeneral}},
		memory:     &fakeMemory{},
		docs:       &fakeDocs{},
		web:        &fakeWeb{},
		quiz:       &fakeQuiz{text: "quiz text"},
	}
	graph, err := NewGraph(&Config{
		LLM:        f.llm,
		Classifier: f.classifier,
		Memory:     f.memory,
		Docs:       f.docs,
		Web:        f.web,
		Quiz:       f.quiz,
	})
	require.NoError(t, err)
	f.graph = graph
	return f
}

func userState(text string) *State {
	return &State{Messages: []Message{{Role: RoleUser, Content: text}}}
}

func TestNewGraphRequiresCollaborators(t *testing.T) {
	_, err := NewGraph(nil)
	require.Error(t, err)

	_, err = NewGraph(&Config{})
	require.Error(t, err)
}

func TestRunEmptyState(t *testing.T) {
	f := newFixture(t)
	require.Error(t, f.graph.Run(context.Background(), &State{}))
}

func TestRunAppendsExactlyOneAssistantTurn(t *testing.T) {
	f := newFixture(t)
	state := userState("what is overfitting?")

	require.NoError(t, f.graph.Run(context.Background(), state))
	require.Len(t, state.Messages, 2)
	require.Equal(t, RoleAssistant, state.Messages[1].Role)
	require.Equal(t, "short answer", state.Messages[1].Content)
}

// Scenario: a usable course excerpt answers without the web fallback.
func TestRAGUsableExcerptSkipsWebFallback(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = &routing.Classification{Route: routing.RouteRAG}
	f.docs.text = strings.Repeat("Gradient descent minimizes a loss function step by step. ", 10)

	state := userState("What is gradient descent?")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.False(t, f.web.called, "web fallback must not run for usable excerpts")
	require.Contains(t, f.llm.lastSystemPrompt(), "Course excerpts:")
	require.Contains(t, f.llm.lastSystemPrompt(), "Gradient descent minimizes")
	require.NotContains(t, state.Messages[1].Content, "Sources:")
}

func TestRAGShortExcerptFallsBackToWeb(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = &routing.Classification{Route: routing.RouteRAG}
	f.docs.text = "too short"
	f.web.result = &websearch.Result{
		OK: true,
		Results: []websearch.SearchResult{
			{Title: "Transformers", URL: "https://example.com/t", Content: "Attention-based models."},
		},
	}

	state := userState("explain transformers")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.True(t, f.web.called)
	require.Equal(t, 5, f.web.lastMaxResults)
	require.Contains(t, f.llm.lastSystemPrompt(), "Web results:")
	require.Contains(t, state.Messages[1].Content, "Sources:\n- https://example.com/t")
}

func TestRAGDoubleFailureDegradesWithCaveat(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = &routing.Classification{Route: routing.RouteRAG}
	f.docs.text = ""
	f.web.result = &websearch.Result{OK: false, Error: "tavily unreachable"}

	state := userState("explain diffusion models")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Len(t, state.Messages, 2)
	require.Contains(t, f.llm.lastSystemPrompt(), "could not verify")
	require.NotContains(t, state.Messages[1].Content, "Sources:")
}

func TestRouteQuizPassesChapterAndCount(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = &routing.Classification{Route: routing.RouteQuiz, Chapter: "3"}

	state := userState("quiz me on chapter 3")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Equal(t, "3", f.quiz.lastChapter)
	require.Equal(t, 5, f.quiz.lastN)
	require.Equal(t, routing.RouteQuiz, state.Route)
	require.Equal(t, "3", state.Chapter)
	require.Len(t, state.Messages, 2)
	require.Equal(t, "quiz text", state.Messages[1].Content)
}

func TestClassifierFailureDefaultsToGeneral(t *testing.T) {
	f := newFixture(t)
	f.classifier.err = errors.New("provider down")

	state := userState("hello")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Equal(t, routing.RouteGeneral, state.Route)
	require.Len(t, state.Messages, 2)
}

func TestMemoryBlockInjectedIntoPrompt(t *testing.T) {
	f := newFixture(t)
	f.memory.recall = memory.RecallResult{Snippets: []string{"student's name is Alex"}}

	state := userState("what's my name?")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Contains(t, f.llm.lastSystemPrompt(), "Relevant long-term memories:\n- student's name is Alex")
}

func TestMemoryRecallDegradedIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.memory.recall = memory.RecallResult{Degraded: true}

	state := userState("anything")
	require.NoError(t, f.graph.Run(context.Background(), state))
	require.Empty(t, state.Memory)
}

func TestAutoMemoryWriteOnLongReply(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = strings.Repeat("A thorough explanation of bias and variance. ", 10)

	state := userState("explain the bias-variance tradeoff")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Len(t, f.memory.stored, 1)
	require.Equal(t, f.llm.reply, f.memory.stored[0])
}

func TestNoAutoWriteOnShortReply(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = "short"

	state := userState("hi")
	require.NoError(t, f.graph.Run(context.Background(), state))
	require.Empty(t, f.memory.stored)
}

// Scenario: explicit trigger wins over the automatic path and stores the
// cleaned user text, not the assistant reply.
func TestExplicitMemoryWrite(t *testing.T) {
	f := newFixture(t)
	f.llm.reply = strings.Repeat("long reply that would otherwise auto-store ", 10)

	state := userState("please store this: my name is Alex")
	require.NoError(t, f.graph.Run(context.Background(), state))

	require.Len(t, f.memory.stored, 1)
	require.Equal(t, "my name is Alex", f.memory.stored[0])
}

func TestMemoryWriteFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t)
	f.memory.fail = true
	f.llm.reply = strings.Repeat("very long explanatory reply ", 20)

	state := userState("remember this: I use PyTorch")
	require.NoError(t, f.graph.Run(context.Background(), state))
	require.Len(t, state.Messages, 2)
}

func TestGenerationFailureLeavesMessagesUnchanged(t *testing.T) {
	f := newFixture(t)
	f.llm.err = errors.New("rate limited")

	state := userState("what is AI?")
	err := f.graph.Run(context.Background(), state)
	require.Error(t, err)
	require.Len(t, state.Messages, 1)
	require.Empty(t, f.memory.stored, "nothing is persisted on failure")
}

func TestQuizFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.classifier.result = &routing.Classification{Route: routing.RouteQuiz}
	f.quiz.err = errors.New("provider down")

	state := userState("quiz me")
	require.Error(t, f.graph.Run(context.Background(), state))
	require.Len(t, state.Messages, 1)
}

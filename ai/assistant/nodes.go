package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/mlmentor/mlmentor/ai/quiz"
	"github.com/mlmentor/mlmentor/ai/routing"
	"github.com/mlmentor/mlmentor/ai/websearch"
)

const (
	memoryRecallK = 3

	// usableMinLength is the usefulness-heuristic threshold: shorter course
	// excerpts never answer a question on their own.
	usableMinLength = 200

	// autoStoreMinLength is the automatic memory-write threshold on the
	// assistant reply length.
	autoStoreMinLength = 200

	webMaxResults = 5
)

// negativePhrases mark document-search output as a non-answer regardless of
// its length.
var negativePhrases = []string{
	"no relevant",
	"no results",
	"nothing found",
	"i couldn't find",
	"not found",
	"empty",
}

// usable decides whether retrieved course-document text suffices to answer
// without the web fallback.
func usable(text string) bool {
	if len(text) < usableMinLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range negativePhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	return true
}

// recallMemory populates state.Memory from the latest user message.
// It never fails; store trouble degrades to an empty memory block.
func (g *Graph) recallMemory(ctx context.Context, state *State) {
	state.Memory = ""

	last := state.lastMessage()
	if last == nil || last.Role != RoleUser {
		return
	}

	result := g.memory.Recall(ctx, last.Content, memoryRecallK)
	switch {
	case result.Degraded:
		g.recordMemoryRecall("degraded")
	case len(result.Snippets) == 0:
		g.recordMemoryRecall("empty")
	default:
		g.recordMemoryRecall("hit")
		state.Memory = formatMemory(result.Snippets)
	}
}

// routeTurn classifies the latest user message into a route. Classifier
// failure degrades to the default route instead of aborting the turn.
func (g *Graph) routeTurn(ctx context.Context, state *State) {
	state.Route = routing.DefaultRoute
	state.Chapter = ""

	last := state.lastMessage()
	if last == nil {
		return
	}

	result, err := g.classifier.Classify(ctx, last.Content)
	if err != nil {
		slog.Warn("assistant: classification failed, using default route", "error", err)
		return
	}
	state.Route = result.Route
	state.Chapter = result.Chapter
}

// answerRAG is the document-grounded generator with web fallback.
func (g *Graph) answerRAG(ctx context.Context, state *State) error {
	query := state.lastMessage().Content

	excerpts, err := g.docs.Search(ctx, query)
	if err != nil {
		return err
	}

	if usable(excerpts) {
		reply, err := g.generate(ctx, ragSystemPrompt(state.Memory, excerpts), state)
		if err != nil {
			return err
		}
		state.AppendAssistant(reply)
		return nil
	}

	g.recordWebFallback()
	result := g.web.Search(ctx, query, webMaxResults)

	bullets, sources := formatWebResults(result)
	if bullets == "" {
		// Both retrieval paths came up empty: answer anyway, with a caveat.
		reply, err := g.generate(ctx, degradedSystemPrompt(state.Memory), state)
		if err != nil {
			return err
		}
		state.AppendAssistant(reply)
		return nil
	}

	reply, err := g.generate(ctx, webSystemPrompt(state.Memory, bullets), state)
	if err != nil {
		return err
	}
	state.AppendAssistant(reply + "\n\nSources:\n" + sources)
	return nil
}

// answerGeneral is the free-explanation generator.
func (g *Graph) answerGeneral(ctx context.Context, state *State) error {
	reply, err := g.generate(ctx, generalSystemPrompt(state.Memory), state)
	if err != nil {
		return err
	}
	state.AppendAssistant(reply)
	return nil
}

// answerQuiz delegates to the quiz generator; memory and web search are not
// consulted on this path.
func (g *Graph) answerQuiz(ctx context.Context, state *State) error {
	text, err := g.quiz.Generate(ctx, state.Chapter, quiz.DefaultQuestions)
	if err != nil {
		return err
	}
	state.AppendAssistant(text)
	return nil
}

// formatWebResults renders search results as context bullets plus a source
// list. Entries without a URL are skipped. Empty output means the web path
// produced nothing usable.
func formatWebResults(result *websearch.Result) (bullets, sources string) {
	if result == nil || !result.OK {
		return "", ""
	}
	var b, s strings.Builder
	for _, r := range result.Results {
		if r.URL == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Content)
		fmt.Fprintf(&s, "- %s\n", r.URL)
	}
	return b.String(), strings.TrimRight(s.String(), "\n")
}

// explicitTriggers make the user's message an explicit memory-write request.
var explicitTriggers = []string{"remember this", "save this", "store this", "note this"}

var triggerRemovers = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(explicitTriggers))
	for i, t := range explicitTriggers {
		res[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(t))
	}
	return res
}()

func hasExplicitTrigger(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range explicitTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func removeTriggers(text string) string {
	for _, re := range triggerRemovers {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

func trimEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":;,.!-", r)
	})
}

// cleanExplicit extracts the fact to remember from a triggering message.
// The text after the first trigger wins; when the trigger ends the message,
// the text before it is used instead. Edge punctuation is trimmed so
// "store this: my name is Alex" stores "my name is Alex".
func cleanExplicit(text string) string {
	lower := strings.ToLower(text)

	first := -1
	length := 0
	for _, t := range explicitTriggers {
		if idx := strings.Index(lower, t); idx >= 0 && (first < 0 || idx < first) {
			first = idx
			length = len(t)
		}
	}
	if first < 0 {
		return trimEdges(removeTriggers(text))
	}

	if after := trimEdges(removeTriggers(text[first+length:])); after != "" {
		return after
	}
	return trimEdges(removeTriggers(text[:first]))
}

// writeMemory inspects the closing user/assistant exchange and persists a
// snippet when warranted. Best-effort: storage trouble never aborts the turn.
func (g *Graph) writeMemory(ctx context.Context, state *State) {
	n := len(state.Messages)
	if n < 2 {
		return
	}
	lastAI := state.Messages[n-1]
	lastUser := state.Messages[n-2]
	if lastAI.Role != RoleAssistant || lastUser.Role != RoleUser {
		return
	}

	if hasExplicitTrigger(lastUser.Content) {
		cleaned := cleanExplicit(lastUser.Content)
		if cleaned != "" && g.memory.Store(ctx, cleaned) {
			g.recordMemoryWrite("explicit")
		}
		return
	}

	if len(lastAI.Content) > autoStoreMinLength && g.memory.Store(ctx, lastAI.Content) {
		g.recordMemoryWrite("auto")
	}
}

// Package assistant implements the per-turn orchestration graph:
// memory recall, intent routing, answer generation, and memory write.
package assistant

import "github.com/mlmentor/mlmentor/ai/routing"

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the unit of work threaded through one turn of the graph.
// Messages carries forward across turns; Route, Chapter and Memory are
// per-turn scratch fields recomputed on every run.
type State struct {
	Messages []Message
	Route    routing.Route
	Chapter  string
	Memory   string
}

// AppendAssistant appends one assistant turn.
func (s *State) AppendAssistant(content string) {
	s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: content})
}

// lastMessage returns the most recent message, or nil when empty.
func (s *State) lastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// historyWindow bounds how many trailing messages are sent to the model.
// Older history is dropped from the prompt but kept in the state.
const historyWindow = 40

// window returns the trailing slice of messages passed to generation calls.
func (s *State) window() []Message {
	if len(s.Messages) <= historyWindow {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-historyWindow:]
}

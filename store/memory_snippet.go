package store

import "github.com/pkg/errors"

// MemorySnippet represents a short long-term memory fact, retrievable by
// semantic similarity. Snippets are append-only and not scoped to any chat.
type MemorySnippet struct {
	UID       string
	Content   string
	Model     string // embedding model the vector was produced with
	Embedding []float32
	ID        int64
	CreatedTs int64
}

// FindMemorySnippet specifies the conditions for listing memory snippets.
type FindMemorySnippet struct {
	ID    *int64
	UID   *string
	Limit int
}

// MemorySnippetWithScore represents a vector search result with similarity score.
type MemorySnippetWithScore struct {
	Snippet *MemorySnippet
	Score   float32 // similarity score (0-1, higher is more similar)
}

// MemoryVectorSearchOptions represents the options for memory snippet vector search.
type MemoryVectorSearchOptions struct {
	Vector []float32
	Limit  int
}

// Validate validates the MemoryVectorSearchOptions.
func (o *MemoryVectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 3
	}
	if o.Limit > 100 {
		return errors.Errorf("limit too large (max 100): %d", o.Limit)
	}
	return nil
}

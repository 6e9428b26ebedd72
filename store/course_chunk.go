package store

import "github.com/pkg/errors"

// CourseChunk represents one embedded excerpt of the course material.
type CourseChunk struct {
	Source    string // originating file, relative to the ingest root
	Chapter   string // chapter tag extracted from the document, may be empty
	Content   string
	Model     string // embedding model the vector was produced with
	Embedding []float32
	ID        int64
	CreatedTs int64
}

// FindCourseChunk specifies the conditions for listing course chunks.
type FindCourseChunk struct {
	Source  *string
	Chapter *string
	Limit   int
}

// CourseChunkWithScore represents a vector search result with similarity score.
type CourseChunkWithScore struct {
	Chunk *CourseChunk
	Score float32
}

// CourseVectorSearchOptions represents the options for course chunk vector search.
type CourseVectorSearchOptions struct {
	Vector  []float32
	Chapter *string // optional: restrict to one chapter
	Limit   int
}

// Validate validates the CourseVectorSearchOptions.
func (o *CourseVectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 4
	}
	if o.Limit > 100 {
		return errors.Errorf("limit too large (max 100): %d", o.Limit)
	}
	return nil
}

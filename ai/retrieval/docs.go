// Package retrieval provides course-document search over embedded markdown
// chunks, plus the ingestion pipeline that produces them.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/store"
)

// CourseStore is the storage surface the retrieval package needs.
// *store.Store satisfies it.
type CourseStore interface {
	CreateCourseChunk(ctx context.Context, create *store.CourseChunk) (*store.CourseChunk, error)
	CourseVectorSearch(ctx context.Context, opts *store.CourseVectorSearchOptions) ([]*store.CourseChunkWithScore, error)
}

// Searcher finds course excerpts relevant to a query.
type Searcher interface {
	// Search returns concatenated course excerpts for the query. An empty
	// string signals "no information"; callers apply their own usefulness
	// heuristic and fall back accordingly.
	Search(ctx context.Context, query string) (string, error)
}

const searchLimit = 4

type searcher struct {
	courses  CourseStore
	embedder embedding.Service
}

// NewSearcher creates a new course-document Searcher.
func NewSearcher(courses CourseStore, embedder embedding.Service) Searcher {
	return &searcher{courses: courses, embedder: embedder}
}

func (s *searcher) Search(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := s.courses.CourseVectorSearch(ctx, &store.CourseVectorSearchOptions{
		Vector: vector,
		Limit:  searchLimit,
	})
	if err != nil {
		// An unavailable chunk store (e.g. the SQLite driver) is a retrieval
		// miss, not a turn-aborting failure: the generator falls back to web.
		slog.Warn("retrieval: course chunk search failed, treating as no info", "error", err)
		return "", nil
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("[%s]\n%s", r.Chunk.Source, r.Chunk.Content))
	}
	return b.String(), nil
}

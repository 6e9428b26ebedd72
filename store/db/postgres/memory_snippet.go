package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/store"
)

func (d *DB) CreateMemorySnippet(ctx context.Context, create *store.MemorySnippet) (*store.MemorySnippet, error) {
	stmt := `
		INSERT INTO memory_snippet (uid, content, model, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	vector := pgvector.NewVector(create.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.Content,
		create.Model,
		vector,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create memory snippet")
	}
	return create, nil
}

func (d *DB) ListMemorySnippets(ctx context.Context, find *store.FindMemorySnippet) ([]*store.MemorySnippet, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, fmt.Sprintf("id = $%d", len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, fmt.Sprintf("uid = $%d", len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, content, model, created_ts
		FROM memory_snippet
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list memory snippets")
	}
	defer rows.Close()

	list := []*store.MemorySnippet{}
	for rows.Next() {
		var snippet store.MemorySnippet
		if err := rows.Scan(
			&snippet.ID,
			&snippet.UID,
			&snippet.Content,
			&snippet.Model,
			&snippet.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory snippet")
		}
		list = append(list, &snippet)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// MemoryVectorSearch performs cosine similarity search over memory snippets.
func (d *DB) MemoryVectorSearch(ctx context.Context, opts *store.MemoryVectorSearchOptions) ([]*store.MemorySnippetWithScore, error) {
	query := `
		SELECT id, uid, content, model, created_ts,
			1 - (embedding <=> $1) AS score
		FROM memory_snippet
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search memory snippets")
	}
	defer rows.Close()

	list := []*store.MemorySnippetWithScore{}
	for rows.Next() {
		var snippet store.MemorySnippet
		var score float32
		if err := rows.Scan(
			&snippet.ID,
			&snippet.UID,
			&snippet.Content,
			&snippet.Model,
			&snippet.CreatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan memory snippet")
		}
		list = append(list, &store.MemorySnippetWithScore{Snippet: &snippet, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

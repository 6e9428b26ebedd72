package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/mlmentor/mlmentor/store"
)

func (d *DB) CreateCourseChunk(ctx context.Context, create *store.CourseChunk) (*store.CourseChunk, error) {
	stmt := `
		INSERT INTO course_chunk (source, chapter, content, model, embedding, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	vector := pgvector.NewVector(create.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Source,
		create.Chapter,
		create.Content,
		create.Model,
		vector,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create course chunk")
	}
	return create, nil
}

func (d *DB) ListCourseChunks(ctx context.Context, find *store.FindCourseChunk) ([]*store.CourseChunk, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Source != nil {
		where, args = append(where, fmt.Sprintf("source = $%d", len(args)+1)), append(args, *find.Source)
	}
	if find.Chapter != nil {
		where, args = append(where, fmt.Sprintf("chapter = $%d", len(args)+1)), append(args, *find.Chapter)
	}

	query := `
		SELECT id, source, chapter, content, model, created_ts
		FROM course_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id ASC
	`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list course chunks")
	}
	defer rows.Close()

	list := []*store.CourseChunk{}
	for rows.Next() {
		var chunk store.CourseChunk
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Chapter,
			&chunk.Content,
			&chunk.Model,
			&chunk.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan course chunk")
		}
		list = append(list, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// CourseVectorSearch performs cosine similarity search over course chunks.
func (d *DB) CourseVectorSearch(ctx context.Context, opts *store.CourseVectorSearchOptions) ([]*store.CourseChunkWithScore, error) {
	where, args := []string{"embedding IS NOT NULL"}, []any{pgvector.NewVector(opts.Vector)}

	if opts.Chapter != nil && *opts.Chapter != "" {
		where, args = append(where, fmt.Sprintf("chapter = $%d", len(args)+1)), append(args, *opts.Chapter)
	}

	args = append(args, opts.Limit)
	query := `
		SELECT id, source, chapter, content, model, created_ts,
			1 - (embedding <=> $1) AS score
		FROM course_chunk
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY embedding <=> $1
		LIMIT $` + fmt.Sprintf("%d", len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search course chunks")
	}
	defer rows.Close()

	list := []*store.CourseChunkWithScore{}
	for rows.Next() {
		var chunk store.CourseChunk
		var score float32
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Source,
			&chunk.Chapter,
			&chunk.Content,
			&chunk.Model,
			&chunk.CreatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan course chunk")
		}
		list = append(list, &store.CourseChunkWithScore{Chunk: &chunk, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

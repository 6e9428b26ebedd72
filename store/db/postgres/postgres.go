package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/mlmentor/mlmentor/internal/profile"
	"github.com/mlmentor/mlmentor/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the PostgreSQL database described by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	postgresDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	postgresDB.SetMaxOpenConns(25)
	postgresDB.SetMaxIdleConns(5)

	driver := DB{db: postgresDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const latestSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS "user" (
	id SERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	code_hash TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	messages JSONB NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_user_id ON chat (user_id);

CREATE TABLE IF NOT EXISTS memory_snippet (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	content TEXT NOT NULL,
	model TEXT NOT NULL,
	embedding vector(1024),
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_chunk (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	chapter TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	model TEXT NOT NULL,
	embedding vector(1024),
	created_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_course_chunk_chapter ON course_chunk (chapter);
`

// Migrate creates the schema, including the pgvector extension.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to migrate postgres schema")
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/mlmentor/mlmentor/internal/profile"
	"github.com/mlmentor/mlmentor/store"
)

// ============================================================================
// SQLITE SUPPORT POLICY
// ============================================================================
// SQLite is supported on a BEST-EFFORT basis for development and testing only.
//
// Supported:
// - Users and chat transcripts (basic CRUD)
//
// NOT supported:
// - Vector similarity search (memory snippets, course chunks)
//
// The memory subsystem degrades gracefully when these operations error, so a
// SQLite instance still answers questions; it just never recalls or stores
// long-term memory and always falls back from course-document retrieval.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database described by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode avoids locking issues; a single connection is optimal
	// for a local file with WAL. Each pragma must be prefixed with `_pragma=`
	// when using the `modernc.org/sqlite` driver.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const latestSchema = `
CREATE TABLE IF NOT EXISTS user (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	code_hash TEXT NOT NULL,
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS chat (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	messages TEXT NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_user_id ON chat (user_id);
`

// Migrate creates the schema. SQLite has no vector tables (see support policy).
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, latestSchema); err != nil {
		return errors.Wrap(err, "failed to migrate sqlite schema")
	}
	return nil
}

// ============================================================================
// Vector-backed models: unsupported in SQLite (see support policy above).
// Returning a clear error beats a partial/broken implementation; the memory
// service treats these errors as degraded mode.
// ============================================================================

func (d *DB) CreateMemorySnippet(ctx context.Context, create *store.MemorySnippet) (*store.MemorySnippet, error) {
	return nil, errors.New("memory snippets not supported in SQLite (use PostgreSQL for AI features)")
}

func (d *DB) ListMemorySnippets(ctx context.Context, find *store.FindMemorySnippet) ([]*store.MemorySnippet, error) {
	return nil, errors.New("memory snippets not supported in SQLite (use PostgreSQL for AI features)")
}

func (d *DB) MemoryVectorSearch(ctx context.Context, opts *store.MemoryVectorSearchOptions) ([]*store.MemorySnippetWithScore, error) {
	return nil, errors.New("memory vector search not supported in SQLite (use PostgreSQL for AI features)")
}

func (d *DB) CreateCourseChunk(ctx context.Context, create *store.CourseChunk) (*store.CourseChunk, error) {
	return nil, errors.New("course chunks not supported in SQLite (use PostgreSQL for AI features)")
}

func (d *DB) ListCourseChunks(ctx context.Context, find *store.FindCourseChunk) ([]*store.CourseChunk, error) {
	return nil, errors.New("course chunks not supported in SQLite (use PostgreSQL for AI features)")
}

func (d *DB) CourseVectorSearch(ctx context.Context, opts *store.CourseVectorSearchOptions) ([]*store.CourseChunkWithScore, error) {
	return nil, errors.New("course vector search not supported in SQLite (use PostgreSQL for AI features)")
}

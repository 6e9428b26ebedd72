package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	// User model.
	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)

	// Chat model.
	CreateChat(ctx context.Context, create *Chat) (*Chat, error)
	ListChats(ctx context.Context, find *FindChat) ([]*Chat, error)
	UpdateChat(ctx context.Context, update *UpdateChat) (*Chat, error)
	DeleteChat(ctx context.Context, delete *DeleteChat) error

	// Memory snippet model. Vector search requires a driver with vector
	// support (PostgreSQL + pgvector); others return an error and callers
	// degrade per the memory subsystem policy.
	CreateMemorySnippet(ctx context.Context, create *MemorySnippet) (*MemorySnippet, error)
	ListMemorySnippets(ctx context.Context, find *FindMemorySnippet) ([]*MemorySnippet, error)
	MemoryVectorSearch(ctx context.Context, opts *MemoryVectorSearchOptions) ([]*MemorySnippetWithScore, error)

	// Course chunk model.
	CreateCourseChunk(ctx context.Context, create *CourseChunk) (*CourseChunk, error)
	ListCourseChunks(ctx context.Context, find *FindCourseChunk) ([]*CourseChunk, error)
	CourseVectorSearch(ctx context.Context, opts *CourseVectorSearchOptions) ([]*CourseChunkWithScore, error)
}

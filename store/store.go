package store

import (
	"context"

	"github.com/mlmentor/mlmentor/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}

func (s *Store) CreateChat(ctx context.Context, create *Chat) (*Chat, error) {
	return s.driver.CreateChat(ctx, create)
}

func (s *Store) ListChats(ctx context.Context, find *FindChat) ([]*Chat, error) {
	return s.driver.ListChats(ctx, find)
}

// GetChat returns the matching chat or nil when none exists.
func (s *Store) GetChat(ctx context.Context, find *FindChat) (*Chat, error) {
	list, err := s.driver.ListChats(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateChat(ctx context.Context, update *UpdateChat) (*Chat, error) {
	return s.driver.UpdateChat(ctx, update)
}

func (s *Store) DeleteChat(ctx context.Context, delete *DeleteChat) error {
	return s.driver.DeleteChat(ctx, delete)
}

func (s *Store) CreateMemorySnippet(ctx context.Context, create *MemorySnippet) (*MemorySnippet, error) {
	return s.driver.CreateMemorySnippet(ctx, create)
}

func (s *Store) ListMemorySnippets(ctx context.Context, find *FindMemorySnippet) ([]*MemorySnippet, error) {
	return s.driver.ListMemorySnippets(ctx, find)
}

// MemoryVectorSearch performs vector similarity search on memory snippets.
func (s *Store) MemoryVectorSearch(ctx context.Context, opts *MemoryVectorSearchOptions) ([]*MemorySnippetWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.MemoryVectorSearch(ctx, opts)
}

func (s *Store) CreateCourseChunk(ctx context.Context, create *CourseChunk) (*CourseChunk, error) {
	return s.driver.CreateCourseChunk(ctx, create)
}

func (s *Store) ListCourseChunks(ctx context.Context, find *FindCourseChunk) ([]*CourseChunk, error) {
	return s.driver.ListCourseChunks(ctx, find)
}

// CourseVectorSearch performs vector similarity search on course chunks.
func (s *Store) CourseVectorSearch(ctx context.Context, opts *CourseVectorSearchOptions) ([]*CourseChunkWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.CourseVectorSearch(ctx, opts)
}

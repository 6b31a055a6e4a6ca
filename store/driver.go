package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Transcript model related methods. UpsertTranscript writes the whole
	// document (metadata plus serialized turns) atomically.
	UpsertTranscript(ctx context.Context, upsert *Transcript) (*Transcript, error)
	ListTranscripts(ctx context.Context, find *FindTranscript) ([]*Transcript, error)
	DeleteTranscript(ctx context.Context, delete *DeleteTranscript) error

	// Agent model related methods.
	UpsertAgent(ctx context.Context, upsert *Agent) (*Agent, error)
	ListAgents(ctx context.Context, find *FindAgent) ([]*Agent, error)
	DeleteAgent(ctx context.Context, delete *DeleteAgent) error

	// Tag model related methods.
	UpsertTag(ctx context.Context, upsert *Tag) (*Tag, error)
	ListTags(ctx context.Context, find *FindTag) ([]*Tag, error)
	DeleteTag(ctx context.Context, delete *DeleteTag) error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// Passage model related methods.
	UpsertPassage(ctx context.Context, upsert *Passage) (*Passage, error)
	ListPassages(ctx context.Context, find *FindPassage) ([]*Passage, error)
	DeletePassage(ctx context.Context, delete *DeletePassage) error

	// VectorSearchPassages performs similarity search over passage
	// embeddings, scoped by tags.
	VectorSearchPassages(ctx context.Context, opts *VectorSearchOptions) ([]*PassageWithScore, error)
}

package index

import (
	"context"

	"github.com/starford/folio/internal/models"
)

// PostIndex is the set of index operations consumers depend on.
type PostIndex interface {
	UpsertPost(p PostRow, body string) error
	DeletePost(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// Source is where the index reads posts from. content.Repository
// implements it.
type Source interface {
	ListAll(ctx context.Context) ([]models.Post, error)
	LoadOne(ctx context.Context, id string) (*models.Post, error)
	// IDFor maps a file name in the posts directory to a post ID.
	IDFor(name string) (string, bool)
	// Invalidate drops any cached reads after the directory changed.
	Invalidate()
}

var _ PostIndex = (*DB)(nil)

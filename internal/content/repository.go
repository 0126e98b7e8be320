// Package content lists and loads posts from a storage.Provider, extracting
// their front matter and ordering them newest first.
package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// Refresh selects how often the repository goes back to the store.
type Refresh string

const (
	// RefreshAlways re-reads the store on every call.
	RefreshAlways Refresh = "always"
	// RefreshTTL serves results from a cache until they expire or the
	// repository is invalidated.
	RefreshTTL Refresh = "ttl"
)

const (
	DefaultTTL       = 30 * time.Second
	DefaultCacheSize = 256
)

type listingKey struct{}

// Repository reads posts from a directory of markdown files. A post's ID is
// its file name without the extension.
type Repository struct {
	store   storage.Provider
	pattern string
	logger  *slog.Logger

	refresh   Refresh
	ttl       time.Duration
	cacheSize int

	// nil unless refresh is RefreshTTL.
	listing *expirable.LRU[listingKey, []models.Post]
	posts   *expirable.LRU[string, models.Post]
}

// NewRepository creates a repository over store.
func NewRepository(store storage.Provider, opts ...Option) *Repository {
	r := &Repository{
		store:     store,
		pattern:   storage.DefaultPattern,
		logger:    slog.Default(),
		refresh:   RefreshAlways,
		ttl:       DefaultTTL,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.refresh == RefreshTTL {
		r.listing = expirable.NewLRU[listingKey, []models.Post](1, nil, r.ttl)
		r.posts = expirable.NewLRU[string, models.Post](r.cacheSize, nil, r.ttl)
	}
	return r
}

// ListAll returns every post in the store with its body omitted, sorted by
// date descending. Posts with equal dates keep the store's enumeration order
// and posts without a date come last.
func (r *Repository) ListAll(ctx context.Context) ([]models.Post, error) {
	if r.listing != nil {
		if cached, ok := r.listing.Get(listingKey{}); ok {
			return slices.Clone(cached), nil
		}
	}

	files, err := r.store.List(r.pattern)
	if err != nil {
		return nil, fmt.Errorf("content: list: %w: %w", apperr.ErrStoreUnavailable, err)
	}

	posts := make([]models.Post, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := IDFromName(f.Name)
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("content: %s and %s: %w", prev, f.Name, apperr.ErrDuplicateID)
		}
		seen[id] = f.Name

		p, err := r.load(f, id)
		if err != nil {
			return nil, err
		}
		p.Body = ""
		posts = append(posts, p)
	}

	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return cmp.Compare(b.Date, a.Date)
	})
	for _, p := range posts {
		if !p.Date.IsZero() && !p.Date.IsISO() {
			r.logger.Warn("content: date is not YYYY-MM-DD, ordering is lexical",
				slog.String("id", p.ID), slog.String("date", p.Date.String()))
		}
	}

	if r.listing != nil {
		r.listing.Add(listingKey{}, slices.Clone(posts))
	}
	return posts, nil
}

// LoadOne returns the post with the given ID, body included. It fails with
// apperr.ErrNotFound when no file maps to id.
func (r *Repository) LoadOne(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, fmt.Errorf("content: %q: %w", id, apperr.ErrNotFound)
	}
	if r.posts != nil {
		if cached, ok := r.posts.Get(id); ok {
			return &cached, nil
		}
	}

	files, err := r.store.List(r.pattern)
	if err != nil {
		return nil, fmt.Errorf("content: list: %w: %w", apperr.ErrStoreUnavailable, err)
	}
	var match *models.FileInfo
	for i := range files {
		if IDFromName(files[i].Name) != id {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("content: %s and %s: %w", match.Name, files[i].Name, apperr.ErrDuplicateID)
		}
		match = &files[i]
	}
	if match == nil {
		return nil, fmt.Errorf("content: %q: %w", id, apperr.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := r.load(*match, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content: %q: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	if r.posts != nil {
		r.posts.Add(id, p)
	}
	return &p, nil
}

// Invalidate drops everything cached, so the next call reads the store.
func (r *Repository) Invalidate() {
	if r.listing != nil {
		r.listing.Purge()
	}
	if r.posts != nil {
		r.posts.Purge()
	}
}

// IDFor reports the post ID the file name maps to, and whether the file is
// a post at all.
func (r *Repository) IDFor(name string) (string, bool) {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	ok, err := doublestar.Match(r.pattern, name)
	if err != nil || !ok {
		return "", false
	}
	return IDFromName(name), true
}

func (r *Repository) load(f models.FileInfo, id string) (models.Post, error) {
	data, err := r.store.Read(f.Name)
	if err != nil {
		return models.Post{}, fmt.Errorf("content: read %s: %w: %w", f.Name, apperr.ErrStoreUnavailable, err)
	}
	meta, body, err := frontmatter.Parse(data)
	if err != nil {
		return models.Post{}, fmt.Errorf("content: %s: %w", f.Name, err)
	}
	return models.Post{
		ID:       id,
		Title:    meta.Title,
		Date:     meta.Date,
		Preview:  meta.Preview,
		Body:     body,
		Extra:    meta.Extra,
		Checksum: checksum.Sum(data),
		ModTime:  f.ModTime,
	}, nil
}

// IDFromName derives a post ID from its file name by dropping the extension.
func IDFromName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

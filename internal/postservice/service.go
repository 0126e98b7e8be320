// Package postservice combines the content repository, the renderer and the
// search index behind the operations the HTTP API and MCP server expose.
package postservice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
)

// PostDetail is a post together with its rendered body.
type PostDetail struct {
	models.Post
	Nodes []*render.Node `json:"nodes"`
	HTML  string         `json:"html"`
}

// Service coordinates the repository, renderer and index.
type Service struct {
	posts    index.Source
	renderer *render.Renderer
	db       index.PostIndex
	root     string
	logger   *slog.Logger
}

// NewService creates a post service. root is the posts directory, checked
// by Ready.
func NewService(posts index.Source, renderer *render.Renderer, db index.PostIndex, root string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{posts: posts, renderer: renderer, db: db, root: root, logger: logger}
}

// ListPosts returns every post, newest first, without bodies.
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

// GetPost returns a post with its markdown body.
func (s *Service) GetPost(ctx context.Context, id string) (*models.Post, error) {
	return s.posts.LoadOne(ctx, id)
}

// RenderPost loads a post and renders its body into display nodes and HTML.
func (s *Service) RenderPost(ctx context.Context, id string) (*PostDetail, error) {
	p, err := s.posts.LoadOne(ctx, id)
	if err != nil {
		return nil, err
	}
	nodes := s.renderer.Render(p.Body)
	if nodes == nil {
		nodes = []*render.Node{}
	}
	return &PostDetail{Post: *p, Nodes: nodes, HTML: render.HTML(nodes)}, nil
}

// Search queries the full-text index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []index.SearchResult{}, nil
	}
	return s.db.Search(query, limit)
}

// Reindex re-reads every post and reconciles the index with it.
func (s *Service) Reindex(ctx context.Context) (index.SyncResult, error) {
	res, err := index.Sync(ctx, s.db, s.posts, s.logger)
	if err != nil {
		return res, err
	}
	s.logger.Info("reindex: done",
		slog.Int("indexed", res.Indexed),
		slog.Int("removed", res.Removed),
		slog.Int("unchanged", res.Unchanged))
	return res, nil
}

// Ready reports whether the posts directory and the index are usable.
func (s *Service) Ready(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("posts directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("posts directory: %s is not a directory", s.root)
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

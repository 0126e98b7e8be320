package api

import (
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

// PostListResponse is returned by GET /api/posts.
type PostListResponse struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
}

// SearchResponse is returned by GET /api/search.
type SearchResponse struct {
	Results []index.SearchResult `json:"results"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

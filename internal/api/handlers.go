package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/postservice"
)

const maxSearchLimit = 100

// Handler holds API route handlers.
type Handler struct {
	svc *postservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *postservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPosts(r.Context())
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Total: len(posts)})
}

// GetPost handles GET /api/posts/{id}. The response carries the post's
// display nodes and their HTML; the ETag is the checksum of the file.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	detail, err := h.svc.RenderPost(r.Context(), id)
	if err != nil {
		writeError(w, "get post", err, slog.String("id", id))
		return
	}

	etag := checksum.ETag(detail.Checksum)
	w.Header().Set("ETag", etag)
	if checksum.MatchesNoneMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Reindex handles POST /api/admin/reindex.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reindex(r.Context())
	if err != nil {
		writeError(w, "reindex", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Live handles GET /health/live.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Ready handles GET /health/ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

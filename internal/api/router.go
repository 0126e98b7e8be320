package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/postservice"
)

// NewRouter creates a chi router with the API routes, to be mounted under
// /api. Reading is public; the admin routes require the bearer token when
// authEnabled is set. sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *postservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Post("/admin/reindex", h.Reindex)
	})

	return r
}

// NewSiteRouter assembles the full HTTP surface: health checks, the API
// under /api and post images under /images.
func NewSiteRouter(svc *postservice.Service, api chi.Router, imagesRoot string, middlewares ...func(http.Handler) http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(middlewares...)

	r.Get("/health/live", h.Live)
	r.Get("/health/ready", h.Ready)
	r.Mount("/api", api)
	if imagesRoot != "" {
		r.Get("/images/{filename}", NewImageHandler(imagesRoot).ServeFile)
	}
	return r
}

package photo

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photostream/photostream-api/internal/middleware"
)

// Routes returns the public photo router. Sub-resources (comments, ratings,
// likes) are mounted under /{id}/<name> and read the id with IDParam.
func (h *Handler) Routes(subresources map[string]http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/search", h.Search)
	r.Get("/{id}", h.Get)

	for name, sub := range subresources {
		r.Mount("/{id}/"+name, sub)
	}

	return r
}

// CreatorRoutes returns the creator-only management router
func (h *Handler) CreatorRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireCreator())

	r.Post("/", h.Create)
	r.Get("/", h.ListMine)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

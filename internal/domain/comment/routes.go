package comment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the comment router, mounted under /photos/{id}/comments
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/", h.List)

	return r
}

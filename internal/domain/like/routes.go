package like

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the like router, mounted under /photos/{id}/likes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Toggle)
	r.Get("/", h.Stats)

	return r
}

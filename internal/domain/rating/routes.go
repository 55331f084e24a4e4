package rating

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photostream/photostream-api/internal/middleware"
)

// Routes returns the rating router, mounted under /photos/{id}/ratings.
// Any signed-in user may read stats; only consumers may rate.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Stats)
	r.With(middleware.RequireConsumer()).Post("/", h.Rate)

	return r
}

package discovery

import (
	"github.com/go-chi/chi/v5"
)

// Routes registers the /api level discovery endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/discover", h.Discover)
	r.Get("/regions", h.Regions)
	r.Get("/ping", h.Ping)
}

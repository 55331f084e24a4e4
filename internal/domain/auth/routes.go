package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns auth router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public routes (no auth required)
	r.Post("/register-consumer", h.RegisterConsumer)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.Get("/profile-pictures", h.ListProfilePictures)

	// Protected routes (auth required)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/me", h.Me)
		r.Post("/upgrade-role", h.UpgradeRole)
		r.Post("/profile-picture", h.SetProfilePicture)
		r.Get("/profile-picture", h.GetProfilePicture)
		r.Delete("/profile-picture", h.DeleteProfilePicture)
	})

	return r
}

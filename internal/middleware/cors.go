package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler allows the browser client to call the API from allowedOrigins
// ("*" allows any). Auth travels in the Authorization header, so cookies are
// never accepted cross-origin.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		// clients quote the request id when reporting failures
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	})
}

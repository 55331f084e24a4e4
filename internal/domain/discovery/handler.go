package discovery

import (
	"net/http"

	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/response"
)

// Handler handles discovery and health HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Root handles GET /
// @Summary Service banner
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response{data=RootResponse}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	response.OK(w, RootResponse{
		Status:  StatusHealthy,
		Message: "Welcome to PhotoStream API",
		Version: APIVersion,
	})
}

// Health handles GET /api/health
// @Summary Detailed health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response{data=HealthResponse}
// @Router /api/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.Health(r.Context()))
}

// Discover handles GET /api/discover
// @Summary Nearest regional server
// @Tags Discovery
// @Produce json
// @Success 200 {object} response.Response{data=DiscoverResponse}
// @Router /api/discover [get]
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.Discover(r.Context(), middleware.ClientIP(r)))
}

// Regions handles GET /api/regions
// @Summary Regional server health
// @Tags Discovery
// @Produce json
// @Success 200 {object} response.Response{data=RegionsResponse}
// @Router /api/regions [get]
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.CheckRegions(r.Context()))
}

// Ping handles GET /api/ping
// @Summary Latency probe
// @Tags Discovery
// @Produce json
// @Success 200 {object} response.Response{data=PingResponse}
// @Router /api/ping [get]
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service.Ping())
}

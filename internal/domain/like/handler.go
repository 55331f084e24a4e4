package like

import (
	"errors"
	"net/http"

	"github.com/photostream/photostream-api/internal/domain/photo"
	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/response"
)

// Handler handles like HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates like handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Toggle handles POST /photos/{id}/likes
// @Summary Like or unlike a photo
// @Tags Likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Response{data=ToggleResponse}
// @Failure 401,404 {object} response.Response
// @Router /photos/{id}/likes [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	result, err := h.service.Toggle(r.Context(), middleware.GetUserID(r.Context()), photoID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Stats handles GET /photos/{id}/likes
// @Summary Like statistics of a photo
// @Tags Likes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Response{data=Stats}
// @Failure 401,404 {object} response.Response
// @Router /photos/{id}/likes [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), middleware.GetUserID(r.Context()), photoID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, stats)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPhotoNotFound):
		response.NotFound(w, "Photo not found")
	case errors.Is(err, database.ErrUnavailable):
		errorhandler.Unavailable(r.Context(), w, err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", err)
	}
}

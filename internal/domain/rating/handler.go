package rating

import (
	"errors"
	"net/http"

	"github.com/photostream/photostream-api/internal/domain/photo"
	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/response"
	"github.com/photostream/photostream-api/internal/pkg/validator"
)

// Handler handles rating HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates rating handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Rate handles POST /photos/{id}/ratings
// @Summary Rate a photo (consumers only)
// @Tags Ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param request body RateRequest true "Score 1-5"
// @Success 201 {object} response.Response{data=RatingResponse}
// @Failure 400,401,403,404,422 {object} response.Response
// @Router /photos/{id}/ratings [post]
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	var req RateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Rate(r.Context(), middleware.GetUserID(r.Context()), photoID, req.Rating)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

// Stats handles GET /photos/{id}/ratings
// @Summary Rating statistics of a photo
// @Tags Ratings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Response{data=Stats}
// @Failure 401,404 {object} response.Response
// @Router /photos/{id}/ratings [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), photoID)
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

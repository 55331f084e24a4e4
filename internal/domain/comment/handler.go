package comment

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/photostream/photostream-api/internal/domain/photo"
	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/response"
	"github.com/photostream/photostream-api/internal/pkg/validator"
)

// Handler handles comment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates comment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /photos/{id}/comments
// @Summary Comment on a photo
// @Tags Comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param request body CreateRequest true "Comment"
// @Success 201 {object} response.Response{data=Comment}
// @Failure 400,401,404,422 {object} response.Response
// @Router /photos/{id}/comments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	c, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), photoID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, c)
}

// List handles GET /photos/{id}/comments
// @Summary List comments of a photo
// @Tags Comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param limit query int false "Max comments (default 50, max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 401,404,422 {object} response.Response
// @Router /photos/{id}/comments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	photoID, ok := photo.IDParam(w, r)
	if !ok {
		return
	}

	limit, offset := DefaultLimit, 0
	errs := map[string]string{}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			errs["limit"] = "Must be between 1 and " + strconv.Itoa(MaxLimit)
		}
		limit = n
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			errs["offset"] = "Must be a non-negative integer"
		}
		offset = n
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.List(r.Context(), photoID, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPhotoNotFound):
		response.NotFound(w, "Photo not found")
	case errors.Is(err, user.ErrUserNotFound):
		response.Unauthorized(w, "User not found")
	case errors.Is(err, database.ErrUnavailable):
		errorhandler.Unavailable(r.Context(), w, err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", err)
	}
}

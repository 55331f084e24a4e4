package photo

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/media"
	"github.com/photostream/photostream-api/internal/pkg/response"
	"github.com/photostream/photostream-api/internal/pkg/storage"
	"github.com/photostream/photostream-api/internal/pkg/validator"
)

// multipartOverhead is form memory allowed on top of the file itself.
const multipartOverhead = 1 << 20

// Handler handles photo HTTP requests
type Handler struct {
	service       *Service
	maxUploadSize int64
}

// NewHandler creates photo handler
func NewHandler(service *Service, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Handler{service: service, maxUploadSize: maxUploadSize}
}

// Create handles POST /creator/photos
// @Summary Upload a photo
// @Tags Creator
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image (jpeg, png, webp)"
// @Param title formData string true "Title"
// @Param caption formData string false "Caption"
// @Param location formData string false "Location"
// @Param people_present formData string false "Comma separated names"
// @Success 201 {object} response.Response{data=PhotoResponse}
// @Failure 400,401,403,422,502,503 {object} response.Response
// @Router /creator/photos [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		response.BadRequest(w, "Invalid multipart form or file too large")
		return
	}

	req := CreateRequest{
		Title:         strings.TrimSpace(r.FormValue("title")),
		Caption:       optionalForm(r, "caption"),
		Location:      optionalForm(r, "location"),
		PeoplePresent: ParsePeople(r.MultipartForm.Value["people_present"]),
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "This field is required"})
		return
	}
	defer file.Close()

	data, _, err := storage.ValidateImage(file, h.maxUploadSize)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			response.BadRequest(w, "File too large")
		case errors.Is(err, storage.ErrInvalidMimeType):
			response.BadRequest(w, "Only jpeg, png and webp images are allowed")
		case errors.Is(err, storage.ErrEmptyFile):
			response.BadRequest(w, "File is empty")
		default:
			response.BadRequest(w, "Failed to read file")
		}
		return
	}

	userID := middleware.GetUserID(r.Context())
	photo, err := h.service.Create(r.Context(), userID, &req, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, photo)
}

// ListMine handles GET /creator/photos
// @Summary List own photos
// @Tags Creator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]PhotoResponse}
// @Failure 401,403,503 {object} response.Response
// @Router /creator/photos [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.ListByCreator(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, photos)
}

// Update handles PUT /creator/photos/{id}
// @Summary Update own photo
// @Tags Creator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Param request body UpdateRequest true "Fields to change"
// @Success 200 {object} response.Response{data=PhotoResponse}
// @Failure 400,401,403,404,422 {object} response.Response
// @Router /creator/photos/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	photoID, ok := IDParam(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	photo, err := h.service.Update(r.Context(), middleware.GetUserID(r.Context()), photoID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, photo)
}

// Delete handles DELETE /creator/photos/{id}
// @Summary Delete own photo
// @Tags Creator
// @Security BearerAuth
// @Param id path string true "Photo ID"
// @Success 204 {string} string "No Content"
// @Failure 401,403,404 {object} response.Response
// @Router /creator/photos/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	photoID, ok := IDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.GetUserID(r.Context()), photoID); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// List handles GET /photos
// @Summary List photos
// @Tags Photos
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size 1-100 (default 20)"
// @Param search query string false "Matches title or caption"
// @Param location query string false "Matches location"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 422,503 {object} response.Response
// @Router /photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, errs := parseListQuery(r, "search")
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}
	h.list(w, r, q)
}

// Search handles GET /photos/search
// @Summary Search photos
// @Tags Photos
// @Produce json
// @Param q query string true "Matches title or caption"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size 1-100 (default 20)"
// @Param location query string false "Matches location"
// @Success 200 {object} response.Response{data=ListResponse}
// @Failure 422,503 {object} response.Response
// @Router /photos/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q, errs := parseListQuery(r, "q")
	if errs == nil && q.Search == "" {
		errs = map[string]string{"q": "This field is required"}
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}
	h.list(w, r, q)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, q ListQuery) {
	result, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Get handles GET /photos/{id}
// @Summary Get photo
// @Tags Photos
// @Produce json
// @Param id path string true "Photo ID"
// @Success 200 {object} response.Response{data=PhotoResponse}
// @Failure 404,503 {object} response.Response
// @Router /photos/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, ok := IDParam(w, r)
	if !ok {
		return
	}

	photo, err := h.service.Get(r.Context(), photoID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, photo)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrPhotoNotFound):
		response.NotFound(w, "Photo not found")
	case errors.Is(err, ErrNotPhotoOwner):
		response.Forbidden(w, "You can only manage your own photos")
	case errors.Is(err, media.ErrInvalidImage):
		response.BadRequest(w, "File is not a readable image")
	case errors.Is(err, media.ErrUpstream):
		errorhandler.Upstream(r.Context(), w, "Media upload failed", err)
	case errors.Is(err, database.ErrUnavailable):
		errorhandler.Unavailable(r.Context(), w, err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", err)
	}
}

// ParseID reads the {id} path parameter. A malformed id is answered as a
// missing photo.
func ParseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// IDParam is ParseID that answers 404 itself; the comment, rating and like
// handlers share it.
func IDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := ParseID(r)
	if !ok {
		response.NotFound(w, "Photo not found")
	}
	return id, ok
}

// parseListQuery reads paging and filters; searchParam names the query
// parameter that carries the search text.
func parseListQuery(r *http.Request, searchParam string) (ListQuery, map[string]string) {
	values := r.URL.Query()
	errs := map[string]string{}

	q := ListQuery{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Search:   strings.TrimSpace(values.Get(searchParam)),
		Location: strings.TrimSpace(values.Get("location")),
	}

	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["page"] = "Must be an integer"
		}
		q.Page = n
	}
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs["page_size"] = "Must be an integer"
		}
		q.PageSize = n
	}
	if len(errs) > 0 {
		return q, errs
	}

	if verrs := validator.Validate(&q); verrs != nil {
		if msg, ok := verrs["search"]; ok && searchParam != "search" {
			delete(verrs, "search")
			verrs[searchParam] = msg
		}
		return q, verrs
	}
	return q, nil
}

func optionalForm(r *http.Request, field string) *string {
	if _, ok := r.MultipartForm.Value[field]; !ok {
		return nil
	}
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil
	}
	return &v
}

package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/middleware"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/media"
	"github.com/photostream/photostream-api/internal/pkg/password"
	"github.com/photostream/photostream-api/internal/pkg/response"
	"github.com/photostream/photostream-api/internal/pkg/storage"
	"github.com/photostream/photostream-api/internal/pkg/validator"
)

const (
	defaultProfilePage     = 1
	defaultProfilePageSize = 20
	maxProfilePageSize     = 100

	multipartOverhead = 1 << 20
)

// Handler handles auth HTTP requests
type Handler struct {
	service       *Service
	maxUploadSize int64
}

// NewHandler creates auth handler
func NewHandler(service *Service, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Handler{service: service, maxUploadSize: maxUploadSize}
}

// RegisterConsumer handles POST /auth/register-consumer
// @Summary Register a consumer account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account data"
// @Success 201 {object} response.Response{data=user.Identity}
// @Failure 400,409,422 {object} response.Response
// @Router /auth/register-consumer [post]
func (h *Handler) RegisterConsumer(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	identity, err := h.service.RegisterConsumer(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Info().Str("user_id", identity.ID.String()).Msg("consumer registered")
	response.Created(w, identity)
}

// Login handles POST /auth/login
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=TokenResponse}
// @Failure 400,401,422 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	tokens, err := h.service.Login(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles POST /auth/refresh
// @Summary Rotate tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} response.Response{data=TokenResponse}
// @Failure 400,401,422 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Tags Auth
// @Accept json
// @Param request body RefreshRequest true "Refresh token"
// @Success 204 {string} string "No Content"
// @Failure 400 {object} response.Response
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("failed to drop refresh token")
	}

	response.NoContent(w)
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=user.Identity}
// @Failure 401,404 {object} response.Response
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := h.service.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, identity)
}

// UpgradeRole handles POST /auth/upgrade-role
// @Summary Become a creator
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=UpgradeResponse}
// @Failure 401,404,409 {object} response.Response
// @Router /auth/upgrade-role [post]
func (h *Handler) UpgradeRole(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.UpgradeRole(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	log.Info().Str("user_id", result.User.ID.String()).Msg("user upgraded to creator")
	response.OK(w, result)
}

// SetProfilePicture handles POST /auth/profile-picture
// @Summary Upload profile picture
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image (jpeg, png, webp)"
// @Success 200 {object} response.Response{data=ProfilePictureResponse}
// @Failure 400,401,422,502 {object} response.Response
// @Router /auth/profile-picture [post]
func (h *Handler) SetProfilePicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		response.BadRequest(w, "Invalid multipart form or file too large")
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

	result, err := h.service.SetProfilePicture(r.Context(), middleware.GetUserID(r.Context()), data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// GetProfilePicture handles GET /auth/profile-picture
// @Summary Own profile picture
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=ProfilePictureResponse}
// @Failure 401,404 {object} response.Response
// @Router /auth/profile-picture [get]
func (h *Handler) GetProfilePicture(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetProfilePicture(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// DeleteProfilePicture handles DELETE /auth/profile-picture
// @Summary Remove profile picture
// @Tags Auth
// @Security BearerAuth
// @Success 204 {string} string "No Content"
// @Failure 401,404 {object} response.Response
// @Router /auth/profile-picture [delete]
func (h *Handler) DeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProfilePicture(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// ListProfilePictures handles GET /auth/profile-pictures
// @Summary Public profile listing
// @Tags Auth
// @Produce json
// @Param page query int false "Page" default(1)
// @Param page_size query int false "Page size" default(20)
// @Param with_pictures_only query bool false "Only users with a picture"
// @Success 200 {object} response.Response{data=ProfileListResponse}
// @Failure 422 {object} response.Response
// @Router /auth/profile-pictures [get]
func (h *Handler) ListProfilePictures(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	errs := map[string]string{}

	page := intParam(values.Get("page"), defaultProfilePage, "page", errs)
	pageSize := intParam(values.Get("page_size"), defaultProfilePageSize, "page_size", errs)
	withPicturesOnly := false
	if raw := values.Get("with_pictures_only"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs["with_pictures_only"] = "Must be a boolean"
		}
		withPicturesOnly = b
	}
	if _, bad := errs["page"]; !bad && page < 1 {
		errs["page"] = "Must be at least 1"
	}
	if _, bad := errs["page_size"]; !bad && (pageSize < 1 || pageSize > maxProfilePageSize) {
		errs["page_size"] = "Must be between 1 and 100"
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.ListProfilePictures(r.Context(), page, pageSize, withPicturesOnly)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

func intParam(raw string, def int, field string, errs map[string]string) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs[field] = "Must be an integer"
	}
	return n
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Conflict(w, "Email already registered")
	case errors.Is(err, ErrUsernameTaken):
		response.Conflict(w, "Username already taken")
	case errors.Is(err, ErrAlreadyCreator):
		response.Conflict(w, "User is already a creator")
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(w, "Incorrect email or password")
	case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrRefreshTokenRequired):
		response.Unauthorized(w, "Invalid or expired refresh token")
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrNoProfilePicture):
		response.NotFound(w, "No profile picture set")
	case errors.Is(err, password.ErrTooLong):
		response.ValidationError(w, map[string]string{"password": "must be at most 72 bytes"})
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

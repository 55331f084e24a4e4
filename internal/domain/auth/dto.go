package auth

import (
	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/domain/user"
)

// RegisterRequest for POST /auth/register-consumer
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginRequest for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
}

// UpgradeResponse carries the upgraded user and tokens with the new role
type UpgradeResponse struct {
	User   *user.Identity `json:"user"`
	Tokens *TokenResponse `json:"tokens"`
}

// ProfilePictureResponse describes one user's picture
type ProfilePictureResponse struct {
	UserID            uuid.UUID `json:"user_id"`
	Username          string    `json:"username"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
}

// ProfileListResponse is one page of public profiles
type ProfileListResponse struct {
	Users    []user.ProfileSummary `json:"users"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	HasNext  bool                  `json:"has_next"`
}

package auth

import (
	"errors"

	"github.com/photostream/photostream-api/internal/domain/user"
)

var (
	ErrEmailAlreadyExists   = user.ErrEmailAlreadyExists
	ErrUsernameTaken        = user.ErrUsernameTaken
	ErrUserNotFound         = user.ErrUserNotFound
	ErrInvalidCredentials   = errors.New("incorrect email or password")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrAlreadyCreator       = errors.New("user is already a creator")
	ErrNoProfilePicture     = errors.New("no profile picture")
)

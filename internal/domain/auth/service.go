// internal/domain/auth/service.go
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/pkg/jwt"
	"github.com/photostream/photostream-api/internal/pkg/media"
	"github.com/photostream/photostream-api/internal/pkg/password"
)

// ProfilePictureFolder is where profile pictures live on the media host.
const ProfilePictureFolder = "photostream/profile_pictures"

const refreshKeyPrefix = "refresh:"

// Service handles authentication business logic
type Service struct {
	userRepo   user.Repository
	users      *user.Service
	jwtService *jwt.Service
	redis      *redis.Client // nil if Redis disabled
	media      media.Host
}

// NewService creates auth service
func NewService(userRepo user.Repository, users *user.Service, jwtService *jwt.Service, redis *redis.Client, host media.Host) *Service {
	return &Service{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		redis:      redis,
		media:      host,
	}
}

// RegisterConsumer creates a consumer account. Creators are only created
// by operators or by upgrading a consumer.
func (s *Service) RegisterConsumer(ctx context.Context, req *RegisterRequest) (*user.Identity, error) {
	u, err := s.createAccount(ctx, req.Email, req.Username, req.Password, user.RoleConsumer)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

// CreateCreator creates a creator account directly.
func (s *Service) CreateCreator(ctx context.Context, email, username, pw string) (*user.Identity, error) {
	u, err := s.createAccount(ctx, email, username, pw, user.RoleCreator)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) createAccount(ctx context.Context, email, username, pw string, role user.Role) (*user.User, error) {
	email = normalizeEmail(email)

	// 1. Uniqueness pre-checks; the unique constraints still decide races
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}
	existing, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	// 2. Hash password
	hash, err := password.Hash(pw)
	if err != nil {
		return nil, err
	}

	// 3. Create user
	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.generateTokens(ctx, u.ID, u.Role)
}

// Refresh rotates the refresh token and issues a new access token
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	// 1. Validate refresh token in Redis (we store hash(refresh))
	refreshHash := jwt.HashRefreshToken(refreshToken)
	userID, err := s.getRefreshToken(ctx, refreshHash)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// 2. Get user; the role may have changed since login
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidRefreshToken
	}

	// 3. Delete old refresh token (token rotation)
	_ = s.deleteRefreshToken(ctx, refreshHash)

	return s.generateTokens(ctx, u.ID, u.Role)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.deleteRefreshToken(ctx, jwt.HashRefreshToken(refreshToken))
}

// Me returns the current user through the identity cache
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*user.Identity, error) {
	return s.users.GetIdentity(ctx, userID)
}

// UpgradeRole turns a consumer into a creator. The change is one-way.
func (s *Service) UpgradeRole(ctx context.Context, userID uuid.UUID) (*UpgradeResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsCreator() {
		return nil, ErrAlreadyCreator
	}

	if err := s.userRepo.UpdateRole(ctx, userID, user.RoleCreator); err != nil {
		return nil, err
	}
	s.users.Invalidate(ctx, userID)

	u.Role = user.RoleCreator
	u.UpdatedAt = time.Now().UTC()

	tokens, err := s.generateTokens(ctx, u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	return &UpgradeResponse{User: u.Identity(), Tokens: tokens}, nil
}

// SetProfilePicture uploads a new picture and replaces the previous one.
func (s *Service) SetProfilePicture(ctx context.Context, userID uuid.UUID, data []byte) (*ProfilePictureResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	previous := u.ProfilePicturePublicID

	asset, err := s.media.Upload(ctx, data, ProfilePictureFolder)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfilePicture(ctx, userID, &asset.URL, &asset.PublicID); err != nil {
		s.deleteMedia(ctx, asset.PublicID)
		return nil, err
	}
	s.users.Invalidate(ctx, userID)

	if previous != nil {
		s.deleteMedia(ctx, *previous)
	}

	return &ProfilePictureResponse{UserID: u.ID, Username: u.Username, ProfilePictureURL: &asset.URL}, nil
}

// GetProfilePicture returns the user's picture through the identity cache.
func (s *Service) GetProfilePicture(ctx context.Context, userID uuid.UUID) (*ProfilePictureResponse, error) {
	identity, err := s.users.GetIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfilePictureResponse{
		UserID:            identity.ID,
		Username:          identity.Username,
		ProfilePictureURL: identity.ProfilePictureURL,
	}, nil
}

// DeleteProfilePicture removes the picture and its media.
func (s *Service) DeleteProfilePicture(ctx context.Context, userID uuid.UUID) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if u.ProfilePictureURL == nil {
		return ErrNoProfilePicture
	}

	if u.ProfilePicturePublicID != nil {
		s.deleteMedia(ctx, *u.ProfilePicturePublicID)
	}
	if err := s.userRepo.UpdateProfilePicture(ctx, userID, nil, nil); err != nil {
		return err
	}
	s.users.Invalidate(ctx, userID)
	return nil
}

// ListProfilePictures returns a page of public profiles
func (s *Service) ListProfilePictures(ctx context.Context, page, pageSize int, withPicturesOnly bool) (*ProfileListResponse, error) {
	users, total, err := s.userRepo.ListProfiles(ctx, withPicturesOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &ProfileListResponse{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  page*pageSize < total,
	}, nil
}

// generateTokens creates access and refresh tokens
func (s *Service) generateTokens(ctx context.Context, userID uuid.UUID, role user.Role) (*TokenResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(userID, string(role))
	if err != nil {
		return nil, err
	}

	// Generate refresh token (32 bytes hex)
	refreshToken, err := s.jwtService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	// Store hash(refresh) in Redis
	if err := s.storeRefreshToken(ctx, jwt.HashRefreshToken(refreshToken), userID); err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // return raw refresh to client
		TokenType:    "bearer",
		ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
	}, nil
}

func (s *Service) deleteMedia(ctx context.Context, publicID string) {
	if _, err := s.media.Delete(ctx, publicID); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("public_id", publicID).Msg("Failed to delete profile picture media")
	}
}

// Redis helpers (handle nil redis gracefully)
func (s *Service) storeRefreshToken(ctx context.Context, token string, userID uuid.UUID) error {
	if s.redis == nil {
		return nil // Skip if Redis not configured
	}
	return s.redis.Set(ctx, refreshKeyPrefix+token, userID.String(), s.jwtService.GetRefreshTTL()).Err()
}

func (s *Service) getRefreshToken(ctx context.Context, token string) (uuid.UUID, error) {
	if s.redis == nil {
		// Without Redis, refresh tokens don't work
		return uuid.Nil, ErrInvalidRefreshToken
	}
	val, err := s.redis.Get(ctx, refreshKeyPrefix+token).Result()
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return uuid.Parse(val)
}

func (s *Service) deleteRefreshToken(ctx context.Context, token string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, refreshKeyPrefix+token).Err()
}

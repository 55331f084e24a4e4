package comment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/domain/user"
)

// PhotoChecker reports whether a photo exists.
type PhotoChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// IdentityLookup resolves the acting user's display name.
type IdentityLookup interface {
	GetIdentity(ctx context.Context, id uuid.UUID) (*user.Identity, error)
}

// Service handles comment business logic
type Service struct {
	repo   Repository
	photos PhotoChecker
	users  IdentityLookup
}

// NewService creates comment service
func NewService(repo Repository, photos PhotoChecker, users IdentityLookup) *Service {
	return &Service{repo: repo, photos: photos, users: users}
}

// Create adds a comment. The author's username is copied onto the comment.
func (s *Service) Create(ctx context.Context, userID, photoID uuid.UUID, req *CreateRequest) (*Comment, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	identity, err := s.users.GetIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &Comment{
		ID:        uuid.New(),
		PhotoID:   photoID,
		UserID:    userID,
		Username:  identity.Username,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the photo's comments newest first with the total count.
func (s *Service) List(ctx context.Context, photoID uuid.UUID, limit, offset int) (*ListResponse, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	comments, err := s.repo.ListByPhoto(ctx, photoID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.CountByPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Comments: comments, Total: total}, nil
}

func (s *Service) requirePhoto(ctx context.Context, photoID uuid.UUID) error {
	ok, err := s.photos.Exists(ctx, photoID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPhotoNotFound
	}
	return nil
}

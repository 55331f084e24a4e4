package like

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/pkg/cache"
)

// PhotoChecker reports whether a photo exists.
type PhotoChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service handles like business logic
type Service struct {
	repo   Repository
	photos PhotoChecker
	cache  *cache.Cache
}

// NewService creates like service
func NewService(repo Repository, photos PhotoChecker, c *cache.Cache) *Service {
	return &Service{repo: repo, photos: photos, cache: c}
}

// Toggle likes the photo, or removes the like when one exists.
func (s *Service) Toggle(ctx context.Context, userID, photoID uuid.UUID) (*ToggleResponse, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}

	resp := &ToggleResponse{PhotoID: photoID, UserID: userID}
	if existing != nil {
		if err := s.repo.Remove(ctx, existing.ID); err != nil {
			return nil, err
		}
		resp.ID = existing.ID
	} else {
		added, err := s.repo.Add(ctx, &Like{
			ID:        uuid.New(),
			PhotoID:   photoID,
			UserID:    userID,
			Liked:     true,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		resp.ID = added.ID
		resp.Liked = true
	}

	if _, err := s.repo.Recount(ctx, photoID); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.LikesKey(photoID), cache.PhotoKey(photoID))
	s.cache.DeletePrefix(ctx, cache.PhotosPrefix)
	return resp, nil
}

// Stats returns the like count through likes:photo:{id} and whether the
// viewer likes the photo, which is always read from the store.
func (s *Service) Stats(ctx context.Context, userID, photoID uuid.UUID) (*Stats, error) {
	entry, err := cache.Load(ctx, s.cache, cache.LikesKey(photoID), 0, func(ctx context.Context) (*countEntry, error) {
		if err := s.requirePhoto(ctx, photoID); err != nil {
			return nil, err
		}
		n, err := s.repo.Count(ctx, photoID)
		if err != nil {
			return nil, err
		}
		return &countEntry{TotalLikes: n}, nil
	})
	if err != nil {
		return nil, err
	}

	mine, err := s.repo.Get(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalLikes: entry.TotalLikes, UserHasLiked: mine != nil}, nil
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

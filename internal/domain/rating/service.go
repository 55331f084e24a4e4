package rating

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/pkg/cache"
)

// PhotoChecker reports whether a photo exists.
type PhotoChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service handles rating business logic
type Service struct {
	repo   Repository
	photos PhotoChecker
	cache  *cache.Cache
}

// NewService creates rating service
func NewService(repo Repository, photos PhotoChecker, c *cache.Cache) *Service {
	return &Service{repo: repo, photos: photos, cache: c}
}

// Rate creates or replaces the user's rating, recounts the photo's
// aggregate and invalidates the views that embed it.
func (s *Service) Rate(ctx context.Context, userID, photoID uuid.UUID, value int) (*RatingResponse, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored, err := s.repo.Upsert(ctx, &Rating{
		ID:        uuid.New(),
		PhotoID:   photoID,
		UserID:    userID,
		Rating:    value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	avg, total, err := s.repo.Recount(ctx, photoID)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("photo_id", photoID.String()).Float64("average", avg).Int("total", total).Msg("Rating aggregate recounted")

	s.cache.Delete(ctx, cache.PhotoKey(photoID), cache.RatingsKey(photoID))
	return RatingResponseFromEntity(stored), nil
}

// Stats returns the rating summary through ratings:photo:{id}.
func (s *Service) Stats(ctx context.Context, photoID uuid.UUID) (*Stats, error) {
	return cache.Load(ctx, s.cache, cache.RatingsKey(photoID), 0, func(ctx context.Context) (*Stats, error) {
		if err := s.requirePhoto(ctx, photoID); err != nil {
			return nil, err
		}
		dist, err := s.repo.Distribution(ctx, photoID)
		if err != nil {
			return nil, err
		}
		return StatsFromDistribution(dist), nil
	})
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

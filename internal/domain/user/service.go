package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/pkg/cache"
)

// Service answers identity lookups through the user cache. Identity
// changes rarely, so entries live longer than photo listings.
type Service struct {
	repo  Repository
	cache *cache.Cache
	ttl   time.Duration
}

func NewService(repo Repository, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl}
}

// GetIdentity returns the cached identity for id, loading it on a miss.
func (s *Service) GetIdentity(ctx context.Context, id uuid.UUID) (*Identity, error) {
	return cache.Load(ctx, s.cache, cache.UserKey(id), s.ttl, func(ctx context.Context) (*Identity, error) {
		u, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrUserNotFound
		}
		return u.Identity(), nil
	})
}

// Invalidate drops the cached identity after a profile change.
func (s *Service) Invalidate(ctx context.Context, id uuid.UUID) {
	s.cache.Delete(ctx, cache.UserKey(id))
}

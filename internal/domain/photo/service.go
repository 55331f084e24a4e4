package photo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/pkg/cache"
	"github.com/photostream/photostream-api/internal/pkg/media"
	"github.com/photostream/photostream-api/internal/pkg/vision"
)

// MediaFolder is where photo uploads are stored on the media host.
const MediaFolder = "photostream/photos"

// Service handles photo business logic. Reads go through the cache; every
// write invalidates the keys it can affect before returning.
type Service struct {
	repo     Repository
	media    media.Host
	analyzer vision.Analyzer
	cache    *cache.Cache
	notifier Notifier
	events   EventPublisher
	now      func() time.Time
}

// NewService creates photo service. analyzer and notifier may be nil.
func NewService(repo Repository, host media.Host, analyzer vision.Analyzer, c *cache.Cache, notifier Notifier) *Service {
	return &Service{
		repo:     repo,
		media:    host,
		analyzer: analyzer,
		cache:    c,
		notifier: notifier,
		now:      time.Now,
	}
}

// AnalysisEnabled reports whether an analyzer is configured.
func (s *Service) AnalysisEnabled() bool {
	return s.analyzer != nil
}

// Create uploads the image, analyzes it when possible and stores the
// record. A media failure aborts with no record written.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreateRequest, data []byte) (*PhotoResponse, error) {
	asset, err := s.media.Upload(ctx, data, MediaFolder)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	photo := &Photo{
		ID:             uuid.New(),
		CreatorID:      creatorID,
		Title:          req.Title,
		Caption:        req.Caption,
		Location:       req.Location,
		PeoplePresent:  pq.StringArray(req.PeoplePresent),
		MediaPublicID:  asset.PublicID,
		MediaURL:       asset.URL,
		ThumbnailURL:   optional(asset.ThumbnailURL),
		Width:          &asset.Width,
		Height:         &asset.Height,
		Format:         optional(asset.Format),
		SizeBytes:      &asset.Bytes,
		InsightsStatus: InsightsPending,
		UploadDate:     now,
		UpdatedAt:      now,
	}
	if photo.PeoplePresent == nil {
		photo.PeoplePresent = pq.StringArray{}
	}

	if s.analyzer != nil {
		insights, err := s.analyzer.Analyze(ctx, asset.URL)
		if err != nil {
			log.Debug().Err(err).Str("photo_id", photo.ID.String()).Msg("Inline analysis failed, left for worker")
		} else if insights != nil {
			photo.Insights = insights
			photo.InsightsStatus = InsightsDone
		}
	}

	if err := s.repo.Create(ctx, photo); err != nil {
		s.deleteMedia(ctx, asset.PublicID)
		return nil, err
	}

	s.invalidateListings(ctx, creatorID)

	if s.notifier != nil && s.analyzer != nil && photo.InsightsStatus == InsightsPending {
		s.notifier.PhotoCreated(ctx, photo.ID)
	}

	resp := PhotoResponseFromEntity(photo)
	stored, err := s.repo.GetByID(ctx, photo.ID)
	if err != nil || stored == nil {
		log.Warn().Err(err).Str("photo_id", photo.ID.String()).Msg("Created photo not readable, answering from memory")
	} else {
		resp = PhotoResponseFromEntity(stored)
	}

	s.publish(ctx, &Event{Type: EventPhotoCreated, PhotoID: photo.ID, CreatorID: creatorID, Photo: resp})
	return resp, nil
}

// Get returns the enriched photo through photo:{id}.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*PhotoResponse, error) {
	return cache.Load(ctx, s.cache, cache.PhotoKey(id), 0, func(ctx context.Context) (*PhotoResponse, error) {
		photo, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if photo == nil {
			return nil, ErrPhotoNotFound
		}
		return PhotoResponseFromEntity(photo), nil
	})
}

// List returns one page of the public listing. The unfiltered first page
// uses the planner estimate for its total; every other query counts exactly.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResponse, error) {
	key := cache.PhotosPageKey(q.Page, q.PageSize, q.Search, q.Location)
	return cache.Load(ctx, s.cache, key, 0, func(ctx context.Context) (*ListResponse, error) {
		filter := q.filter()

		photos, err := s.repo.List(ctx, filter, q.PageSize, q.offset())
		if err != nil {
			return nil, err
		}

		var total int
		if q.Page == 1 && filter.Unfiltered() {
			total, err = s.repo.EstimatedCount(ctx)
			// A stale estimate must not claim fewer photos than were just read.
			if err == nil && total < len(photos) {
				total = len(photos)
			}
		} else {
			total, err = s.repo.Count(ctx, filter)
		}
		if err != nil {
			return nil, err
		}

		items := make([]*PhotoResponse, len(photos))
		for i, p := range photos {
			items[i] = PhotoResponseFromEntity(p)
		}

		return &ListResponse{
			Photos:     items,
			Total:      total,
			Page:       q.Page,
			PageSize:   q.PageSize,
			TotalPages: TotalPages(total, q.PageSize),
		}, nil
	})
}

// ListByCreator returns the creator's photos newest first.
func (s *Service) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*PhotoResponse, error) {
	return cache.Load(ctx, s.cache, cache.CreatorPhotosKey(creatorID), 0, func(ctx context.Context) ([]*PhotoResponse, error) {
		photos, err := s.repo.ListByCreator(ctx, creatorID)
		if err != nil {
			return nil, err
		}
		items := make([]*PhotoResponse, len(photos))
		for i, p := range photos {
			items[i] = PhotoResponseFromEntity(p)
		}
		return items, nil
	})
}

// Exists reports whether the photo exists. It always asks the store.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Update applies a partial update owned by userID.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, req *UpdateRequest) (*PhotoResponse, error) {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changes := req.changes()
	if changes.Empty() {
		return PhotoResponseFromEntity(photo), nil
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, err
	}

	s.cache.Delete(ctx, cache.PhotoKey(id))
	s.invalidateListings(ctx, photo.CreatorID)

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrPhotoNotFound
	}
	return PhotoResponseFromEntity(updated), nil
}

// Delete removes the photo, its media and its children.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	photo, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	s.deleteMedia(ctx, photo.MediaPublicID)

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(ctx, cache.PhotoKey(id), cache.LikesKey(id), cache.RatingsKey(id))
	s.invalidateListings(ctx, photo.CreatorID)
	s.publish(ctx, &Event{Type: EventPhotoDeleted, PhotoID: id, CreatorID: photo.CreatorID})
	return nil
}

// ProcessNextInsights claims one photo waiting for analysis and analyzes
// it. It reports whether a photo was claimed.
func (s *Service) ProcessNextInsights(ctx context.Context) (bool, error) {
	if s.analyzer == nil {
		return false, nil
	}

	photo, err := s.repo.ClaimPendingInsights(ctx)
	if err != nil {
		return false, err
	}
	if photo == nil {
		return false, nil
	}

	l := log.With().Str("photo_id", photo.ID.String()).Int("attempt", photo.InsightsAttempts).Logger()

	insights, err := s.analyzer.Analyze(ctx, photo.MediaURL)
	if err == nil && insights == nil {
		err = errors.New("empty analysis")
	}
	if err != nil {
		l.Warn().Err(err).Msg("Analysis failed")
		if markErr := s.repo.MarkInsightsFailed(ctx, photo.ID); markErr != nil {
			return true, markErr
		}
		return true, nil
	}

	if err := s.repo.SaveInsights(ctx, photo.ID, insights); err != nil {
		if errors.Is(err, ErrPhotoNotFound) {
			l.Info().Msg("Photo deleted during analysis")
			return true, nil
		}
		return true, err
	}

	s.cache.Delete(ctx, cache.PhotoKey(photo.ID))
	s.invalidateListings(ctx, photo.CreatorID)
	l.Info().Msg("Insights stored")
	return true, nil
}

// FlushCache drops every cached photo view.
func (s *Service) FlushCache(ctx context.Context) int {
	removed := 0
	for _, prefix := range []string{cache.PhotosPrefix, cache.CreatorPhotosPrefix, cache.PhotoPrefix} {
		removed += s.cache.DeletePrefix(ctx, prefix)
	}
	return removed
}

func (s *Service) owned(ctx context.Context, userID, id uuid.UUID) (*Photo, error) {
	photo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, ErrPhotoNotFound
	}
	if !photo.IsOwnedBy(userID) {
		return nil, ErrNotPhotoOwner
	}
	return photo, nil
}

// invalidateListings clears every cached listing page and the creator's list.
func (s *Service) invalidateListings(ctx context.Context, creatorID uuid.UUID) {
	s.cache.DeletePrefix(ctx, cache.PhotosPrefix)
	s.cache.DeletePrefix(ctx, cache.CreatorPhotosKey(creatorID))
}

func (s *Service) deleteMedia(ctx context.Context, publicID string) {
	if _, err := s.media.Delete(ctx, publicID); err != nil {
		log.Warn().Err(err).Str("public_id", publicID).Msg("Failed to delete media")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Package media is the media host adapter: it turns an uploaded image into
// a stored canonical object plus thumbnail and reports the derived metadata.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/pkg/imaging"
	"github.com/photostream/photostream-api/internal/pkg/storage"
)

var (
	// ErrInvalidImage means the payload could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrUpstream means the backing store failed; nothing was persisted.
	ErrUpstream = errors.New("media host unavailable")
)

// Asset describes a hosted image.
type Asset struct {
	PublicID     string `json:"public_id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
}

// Host uploads and deletes images.
type Host interface {
	Upload(ctx context.Context, data []byte, folder string) (*Asset, error)
	Delete(ctx context.Context, publicID string) (bool, error)
}

// StorageHost implements Host on top of an object storage backend.
type StorageHost struct {
	store     storage.Storage
	processor *imaging.Processor
	timeout   time.Duration
}

func NewStorageHost(store storage.Storage, processor *imaging.Processor, timeout time.Duration) *StorageHost {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StorageHost{store: store, processor: processor, timeout: timeout}
}

// Upload stores the image under folder. The thumbnail is written first so a
// failed canonical write never leaves a record-less original behind.
func (h *StorageHost) Upload(ctx context.Context, data []byte, folder string) (*Asset, error) {
	processed, err := h.processor.Process(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	publicID := path.Join(folder, uuid.New().String()) + extension(processed.Format)
	thumbID := thumbnailKey(publicID)

	if err := h.store.Put(ctx, thumbID, bytes.NewReader(processed.Thumbnail), processed.ThumbnailContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := h.store.Put(ctx, publicID, bytes.NewReader(processed.Original), processed.OriginalContentType); err != nil {
		if delErr := h.store.Delete(ctx, thumbID); delErr != nil {
			log.Warn().Err(delErr).Str("key", thumbID).Msg("Failed to clean up thumbnail")
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return &Asset{
		PublicID:     publicID,
		URL:          h.store.GetURL(publicID),
		ThumbnailURL: h.store.GetURL(thumbID),
		Width:        processed.Width,
		Height:       processed.Height,
		Format:       processed.Format,
		Bytes:        processed.Bytes,
	}, nil
}

// Delete removes the canonical object and its thumbnail. It reports false
// when the object was already gone.
func (h *StorageHost) Delete(ctx context.Context, publicID string) (bool, error) {
	if publicID == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	exists, err := h.store.Exists(ctx, publicID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if err := h.store.Delete(ctx, thumbnailKey(publicID)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !exists {
		return false, nil
	}
	if err := h.store.Delete(ctx, publicID); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return true, nil
}

func extension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// thumbnailKey derives the thumbnail key from the canonical key. Thumbnails
// are png for png sources and jpeg otherwise.
func thumbnailKey(publicID string) string {
	ext := path.Ext(publicID)
	base := strings.TrimSuffix(publicID, ext)
	if ext != ".png" {
		ext = ".jpg"
	}
	return base + "_thumb" + ext
}

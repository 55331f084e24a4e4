package photo

import (
	"context"

	"github.com/google/uuid"
)

// EventType names a change pushed to live feed subscribers.
type EventType string

const (
	EventPhotoCreated EventType = "photo_created"
	EventPhotoDeleted EventType = "photo_deleted"
)

// Event describes a published or removed photo.
type Event struct {
	Type      EventType      `json:"type"`
	PhotoID   uuid.UUID      `json:"photo_id"`
	CreatorID uuid.UUID      `json:"creator_id"`
	Photo     *PhotoResponse `json:"photo,omitempty"`
}

// EventPublisher receives photo events after they are committed.
type EventPublisher interface {
	PublishPhotoEvent(ctx context.Context, event *Event)
}

// SetEventPublisher sets the publisher for live feed events.
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

func (s *Service) publish(ctx context.Context, event *Event) {
	if s.events == nil {
		return
	}
	s.events.PublishPhotoEvent(ctx, event)
}

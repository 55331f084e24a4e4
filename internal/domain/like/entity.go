package like

import (
	"time"

	"github.com/google/uuid"
)

// Like marks that a user likes a photo (matches likes table). Not liking
// is the absence of a row.
type Like struct {
	ID        uuid.UUID `db:"id"`
	PhotoID   uuid.UUID `db:"photo_id"`
	UserID    uuid.UUID `db:"user_id"`
	Liked     bool      `db:"liked"`
	CreatedAt time.Time `db:"created_at"`
}

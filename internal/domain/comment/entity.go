package comment

import (
	"time"

	"github.com/google/uuid"
)

// Comment represents a comment on a photo (matches comments table)
type Comment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PhotoID   uuid.UUID `db:"photo_id" json:"photo_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Username  string    `db:"username" json:"username"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

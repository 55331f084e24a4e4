package like

import "github.com/google/uuid"

// ToggleResponse reports the state after a toggle
type ToggleResponse struct {
	ID      uuid.UUID `json:"id"`
	PhotoID uuid.UUID `json:"photo_id"`
	UserID  uuid.UUID `json:"user_id"`
	Liked   bool      `json:"liked"`
}

// Stats is the like summary for one viewer
type Stats struct {
	TotalLikes   int  `json:"total_likes"`
	UserHasLiked bool `json:"user_has_liked"`
}

// countEntry is what likes:photo:{id} holds. The viewer flag is never cached.
type countEntry struct {
	TotalLikes int `json:"total_likes"`
}

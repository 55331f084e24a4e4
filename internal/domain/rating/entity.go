package rating

import (
	"time"

	"github.com/google/uuid"
)

// Rating represents one user's score for a photo (matches ratings table)
type Rating struct {
	ID        uuid.UUID `db:"id"`
	PhotoID   uuid.UUID `db:"photo_id"`
	UserID    uuid.UUID `db:"user_id"`
	Rating    int       `db:"rating"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Average returns sum/n rounded half-up to two decimals on the exact
// fraction, the same value ROUND(AVG(rating)::numeric, 2) stores.
func Average(sum, n int) float64 {
	if n <= 0 {
		return 0
	}
	hundredths := (200*sum + n) / (2 * n)
	return float64(hundredths) / 100
}

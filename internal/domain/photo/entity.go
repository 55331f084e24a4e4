package photo

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/photostream/photostream-api/internal/pkg/vision"
)

// InsightsStatus tracks the analysis lifecycle of a photo.
type InsightsStatus string

const (
	InsightsPending    InsightsStatus = "pending"
	InsightsProcessing InsightsStatus = "processing"
	InsightsDone       InsightsStatus = "done"
	InsightsFailed     InsightsStatus = "failed"
)

// MaxInsightsAttempts bounds how often the worker retries one photo.
const MaxInsightsAttempts = 3

// Photo represents a hosted photo (matches photos table)
type Photo struct {
	ID               uuid.UUID        `db:"id"`
	CreatorID        uuid.UUID        `db:"creator_id"`
	Title            string           `db:"title"`
	Caption          *string          `db:"caption"`
	Location         *string          `db:"location"`
	PeoplePresent    pq.StringArray   `db:"people_present"`
	MediaPublicID    string           `db:"media_public_id"`
	MediaURL         string           `db:"media_url"`
	ThumbnailURL     *string          `db:"thumbnail_url"`
	Width            *int             `db:"width"`
	Height           *int             `db:"height"`
	Format           *string          `db:"format"`
	SizeBytes        *int64           `db:"size_bytes"`
	AverageRating    float64          `db:"average_rating"`
	TotalRatings     int              `db:"total_ratings"`
	TotalLikes       int              `db:"total_likes"`
	Insights         *vision.Insights `db:"insights"`
	InsightsStatus   InsightsStatus   `db:"insights_status"`
	InsightsAttempts int              `db:"insights_attempts"`
	UploadDate       time.Time        `db:"upload_date"`
	UpdatedAt        time.Time        `db:"updated_at"`

	// Username is joined from users; never written.
	Username string `db:"username"`
}

// IsOwnedBy checks ownership
func (p *Photo) IsOwnedBy(userID uuid.UUID) bool {
	return p.CreatorID == userID
}

// Filter narrows a listing. Empty strings mean "no filter".
type Filter struct {
	Search   string
	Location string
}

// Unfiltered reports whether no filter is applied.
func (f Filter) Unfiltered() bool {
	return f.Search == "" && f.Location == ""
}

// Changes holds a partial update; nil fields are left untouched.
type Changes struct {
	Title         *string
	Caption       *string
	Location      *string
	PeoplePresent []string
}

// Empty reports whether nothing would change.
func (c Changes) Empty() bool {
	return c.Title == nil && c.Caption == nil && c.Location == nil && c.PeoplePresent == nil
}

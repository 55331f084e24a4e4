package photo

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/photostream/photostream-api/internal/pkg/vision"
)

// CreateRequest carries the text fields of the multipart upload form.
type CreateRequest struct {
	Title         string   `json:"title" validate:"required,min=1,max=200"`
	Caption       *string  `json:"caption" validate:"omitempty,max=1000"`
	Location      *string  `json:"location" validate:"omitempty,max=200"`
	PeoplePresent []string `json:"people_present" validate:"omitempty,dive,max=100"`
}

// UpdateRequest is a partial update; absent fields are not touched.
type UpdateRequest struct {
	Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
	Caption       *string  `json:"caption" validate:"omitempty,max=1000"`
	Location      *string  `json:"location" validate:"omitempty,max=200"`
	PeoplePresent []string `json:"people_present" validate:"omitempty,dive,max=100"`
}

func (r *UpdateRequest) changes() Changes {
	return Changes{
		Title:         r.Title,
		Caption:       r.Caption,
		Location:      r.Location,
		PeoplePresent: r.PeoplePresent,
	}
}

// ListQuery is a parsed listing request.
type ListQuery struct {
	Page     int    `json:"page" validate:"gte=1"`
	PageSize int    `json:"page_size" validate:"gte=1,lte=100"`
	Search   string `json:"search" validate:"max=200"`
	Location string `json:"location" validate:"max=200"`
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

func (q ListQuery) filter() Filter {
	return Filter{Search: q.Search, Location: q.Location}
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.PageSize
}

// Metadata describes the hosted media.
type Metadata struct {
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
	Format *string `json:"format"`
	Size   *int64  `json:"size"`
}

// PhotoResponse is the enriched photo view. It is also the cached value.
type PhotoResponse struct {
	ID            uuid.UUID        `json:"id"`
	CreatorID     uuid.UUID        `json:"creator_id"`
	Username      string           `json:"username"`
	Title         string           `json:"title"`
	Caption       *string          `json:"caption"`
	Location      *string          `json:"location"`
	PeoplePresent []string         `json:"people_present"`
	MediaURL      string           `json:"media_url"`
	ThumbnailURL  *string          `json:"thumbnail_url"`
	UploadDate    time.Time        `json:"upload_date"`
	AverageRating float64          `json:"average_rating"`
	TotalRatings  int              `json:"total_ratings"`
	TotalLikes    int              `json:"total_likes"`
	Metadata      *Metadata        `json:"metadata,omitempty"`
	AIInsights    *vision.Insights `json:"ai_insights"`
}

// PhotoResponseFromEntity converts entity to response
func PhotoResponseFromEntity(p *Photo) *PhotoResponse {
	people := []string(p.PeoplePresent)
	if people == nil {
		people = []string{}
	}

	resp := &PhotoResponse{
		ID:            p.ID,
		CreatorID:     p.CreatorID,
		Username:      p.Username,
		Title:         p.Title,
		Caption:       p.Caption,
		Location:      p.Location,
		PeoplePresent: people,
		MediaURL:      p.MediaURL,
		ThumbnailURL:  p.ThumbnailURL,
		UploadDate:    p.UploadDate,
		AverageRating: p.AverageRating,
		TotalRatings:  p.TotalRatings,
		TotalLikes:    p.TotalLikes,
		AIInsights:    p.Insights,
	}

	if p.Width != nil || p.Height != nil || p.Format != nil || p.SizeBytes != nil {
		resp.Metadata = &Metadata{
			Width:  p.Width,
			Height: p.Height,
			Format: p.Format,
			Size:   p.SizeBytes,
		}
	}
	return resp
}

// ListResponse is one page of photos.
type ListResponse struct {
	Photos     []*PhotoResponse `json:"photos"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// TotalPages is ceil(total/pageSize), and 1 for an empty result.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

// ParsePeople splits the form value(s) of people_present. Both repeated
// fields and a single comma separated field are accepted.
func ParsePeople(values []string) []string {
	people := make([]string, 0, len(values))
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				people = append(people, name)
			}
		}
	}
	return people
}

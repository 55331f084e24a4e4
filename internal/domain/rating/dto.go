package rating

import (
	"strconv"

	"github.com/google/uuid"
)

// RateRequest is the body of POST /photos/{id}/ratings
type RateRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

// RatingResponse is the stored rating
type RatingResponse struct {
	ID      uuid.UUID `json:"id"`
	PhotoID uuid.UUID `json:"photo_id"`
	UserID  uuid.UUID `json:"user_id"`
	Rating  int       `json:"rating"`
}

func RatingResponseFromEntity(r *Rating) *RatingResponse {
	return &RatingResponse{ID: r.ID, PhotoID: r.PhotoID, UserID: r.UserID, Rating: r.Rating}
}

// Stats summarizes a photo's ratings. It is the cached value.
type Stats struct {
	AverageRating      float64        `json:"average_rating"`
	TotalRatings       int            `json:"total_ratings"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

// StatsFromDistribution derives the summary from per-score counts.
func StatsFromDistribution(dist map[int]int) *Stats {
	stats := &Stats{RatingDistribution: make(map[string]int, 5)}
	sum := 0
	for score := 1; score <= 5; score++ {
		n := dist[score]
		stats.RatingDistribution[strconv.Itoa(score)] = n
		stats.TotalRatings += n
		sum += score * n
	}
	if stats.TotalRatings > 0 {
		stats.AverageRating = Average(sum, stats.TotalRatings)
	}
	return stats
}

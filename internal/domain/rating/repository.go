package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/photostream/photostream-api/internal/pkg/database"
)

// Repository defines rating data access interface
type Repository interface {
	Upsert(ctx context.Context, r *Rating) (*Rating, error)
	Distribution(ctx context.Context, photoID uuid.UUID) (map[int]int, error)
	Recount(ctx context.Context, photoID uuid.UUID) (float64, int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates rating repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Upsert stores the rating, replacing the user's earlier score for the
// same photo.
func (r *repository) Upsert(ctx context.Context, rt *Rating) (*Rating, error) {
	query := `
		INSERT INTO ratings (id, photo_id, user_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT ratings_photo_user_key
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at
		RETURNING id, photo_id, user_id, rating, created_at, updated_at
	`
	var stored Rating
	err := r.db.GetContext(ctx, &stored, query,
		rt.ID, rt.PhotoID, rt.UserID, rt.Rating, rt.CreatedAt, rt.UpdatedAt)
	if err != nil {
		return nil, photoGone("rating repository upsert", err)
	}
	return &stored, nil
}

// Distribution returns the count of each score for a photo
func (r *repository) Distribution(ctx context.Context, photoID uuid.UUID) (map[int]int, error) {
	query := `
		SELECT rating, COUNT(*) AS count
		FROM ratings
		WHERE photo_id = $1
		GROUP BY rating
	`
	type ratingCount struct {
		Rating int `db:"rating"`
		Count  int `db:"count"`
	}
	var counts []ratingCount
	if err := r.db.SelectContext(ctx, &counts, query, photoID); err != nil {
		return nil, database.Classify(err)
	}

	dist := make(map[int]int, 5)
	for i := 1; i <= 5; i++ {
		dist[i] = 0
	}
	for _, c := range counts {
		dist[c.Rating] = c.Count
	}
	return dist, nil
}

// Recount recomputes the photo's aggregate from every rating and stores it.
// Concurrent recounts may interleave; the last one wins and is always a
// complete recount.
func (r *repository) Recount(ctx context.Context, photoID uuid.UUID) (float64, int, error) {
	query := `
		UPDATE photos p
		SET average_rating = agg.avg, total_ratings = agg.total
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg, COUNT(*) AS total
			FROM ratings
			WHERE photo_id = $1
		) agg
		WHERE p.id = $1
		RETURNING p.average_rating, p.total_ratings
	`
	var result struct {
		Average float64 `db:"average_rating"`
		Total   int     `db:"total_ratings"`
	}
	if err := r.db.GetContext(ctx, &result, query, photoID); err != nil {
		return 0, 0, photoGone("rating repository recount", err)
	}
	return result.Average, result.Total, nil
}

// photoGone maps what a concurrent photo delete leaves behind (no row for
// the recount to update, or a dangling foreign key on insert) to
// ErrPhotoNotFound.
func photoGone(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPhotoNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return ErrPhotoNotFound
	}
	return database.Classify(fmt.Errorf("%s: %w", op, err))
}

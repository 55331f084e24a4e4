package comment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/photostream/photostream-api/internal/pkg/database"
)

// Repository defines comment data access interface
type Repository interface {
	Create(ctx context.Context, c *Comment) error
	ListByPhoto(ctx context.Context, photoID uuid.UUID, limit, offset int) ([]*Comment, error)
	CountByPhoto(ctx context.Context, photoID uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates comment repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO comments (id, photo_id, user_id, username, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.PhotoID, c.UserID, c.Username, c.Content, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return database.Classify(fmt.Errorf("comment repository create: %w", err))
	}
	return nil
}

func (r *repository) ListByPhoto(ctx context.Context, photoID uuid.UUID, limit, offset int) ([]*Comment, error) {
	query := `
		SELECT id, photo_id, user_id, username, content, created_at, updated_at
		FROM comments
		WHERE photo_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	comments := []*Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, photoID, limit, offset); err != nil {
		return nil, database.Classify(err)
	}
	return comments, nil
}

func (r *repository) CountByPhoto(ctx context.Context, photoID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments WHERE photo_id = $1`, photoID)
	return count, database.Classify(err)
}

package like

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

// Repository defines like data access interface
type Repository interface {
	Get(ctx context.Context, photoID, userID uuid.UUID) (*Like, error)
	Add(ctx context.Context, l *Like) (*Like, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, photoID uuid.UUID) (int, error)
	Recount(ctx context.Context, photoID uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates like repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, photoID, userID uuid.UUID) (*Like, error) {
	query := `SELECT id, photo_id, user_id, liked, created_at FROM likes WHERE photo_id = $1 AND user_id = $2`
	var l Like
	err := r.db.GetContext(ctx, &l, query, photoID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err)
	}
	return &l, nil
}

// Add inserts the like. When a concurrent request already inserted one for
// the same pair, that row is returned instead.
func (r *repository) Add(ctx context.Context, l *Like) (*Like, error) {
	query := `
		INSERT INTO likes (id, photo_id, user_id, liked, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT likes_photo_user_key DO NOTHING
		RETURNING id
	`
	var insertedID uuid.UUID
	err := r.db.GetContext(ctx, &insertedID, query, l.ID, l.PhotoID, l.UserID, l.Liked, l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existing, getErr := r.Get(ctx, l.PhotoID, l.UserID)
			if getErr != nil {
				return nil, getErr
			}
			if existing != nil {
				return existing, nil
			}
			return nil, database.Classify(fmt.Errorf("like repository add: %w", err))
		}
		return nil, photoGone("like repository add", err)
	}
	return l, nil
}

func (r *repository) Remove(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id)
	return database.Classify(err)
}

func (r *repository) Count(ctx context.Context, photoID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM likes WHERE photo_id = $1`, photoID)
	return n, database.Classify(err)
}

// Recount stores the full like count on the photo and returns it.
func (r *repository) Recount(ctx context.Context, photoID uuid.UUID) (int, error) {
	query := `
		UPDATE photos
		SET total_likes = (SELECT COUNT(*) FROM likes WHERE photo_id = $1)
		WHERE id = $1
		RETURNING total_likes
	`
	var total int
	if err := r.db.GetContext(ctx, &total, query, photoID); err != nil {
		return 0, photoGone("like repository recount", err)
	}
	return total, nil
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

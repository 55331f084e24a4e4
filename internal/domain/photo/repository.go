package photo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/photostream/photostream-api/internal/domain/user"
	"github.com/photostream/photostream-api/internal/pkg/database"
	"github.com/photostream/photostream-api/internal/pkg/vision"
)

// Repository defines photo data access interface
type Repository interface {
	Create(ctx context.Context, photo *Photo) error
	GetByID(ctx context.Context, id uuid.UUID) (*Photo, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Photo, error)
	Count(ctx context.Context, filter Filter) (int, error)
	EstimatedCount(ctx context.Context) (int, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*Photo, error)
	Update(ctx context.Context, id uuid.UUID, changes Changes) error
	Delete(ctx context.Context, id uuid.UUID) error

	ClaimPendingInsights(ctx context.Context) (*Photo, error)
	SaveInsights(ctx context.Context, id uuid.UUID, insights *vision.Insights) error
	MarkInsightsFailed(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new photo repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// photoSelect joins the uploader's current username. Photos of removed
// creators render with the sentinel name.
var photoSelect = `
	SELECT p.id, p.creator_id, p.title, p.caption, p.location, p.people_present,
	       p.media_public_id, p.media_url, p.thumbnail_url, p.width, p.height,
	       p.format, p.size_bytes, p.average_rating, p.total_ratings, p.total_likes,
	       p.insights, p.insights_status, p.insights_attempts, p.upload_date, p.updated_at,
	       COALESCE(u.username, '` + user.DeletedUsername + `') AS username
	FROM photos p
	LEFT JOIN users u ON u.id = p.creator_id`

const newestFirst = `ORDER BY p.upload_date DESC, p.id DESC`

func (r *repository) Create(ctx context.Context, photo *Photo) error {
	query := `
		INSERT INTO photos (
			id, creator_id, title, caption, location, people_present,
			media_public_id, media_url, thumbnail_url, width, height, format, size_bytes,
			insights, insights_status, upload_date, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		photo.ID,
		photo.CreatorID,
		photo.Title,
		photo.Caption,
		photo.Location,
		photo.PeoplePresent,
		photo.MediaPublicID,
		photo.MediaURL,
		photo.ThumbnailURL,
		photo.Width,
		photo.Height,
		photo.Format,
		photo.SizeBytes,
		photo.Insights,
		photo.InsightsStatus,
		photo.UploadDate,
		photo.UpdatedAt,
	)
	if err != nil {
		return database.Classify(fmt.Errorf("photo repository create: %w", err))
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Photo, error) {
	var photo Photo
	err := r.db.GetContext(ctx, &photo, photoSelect+` WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err)
	}
	return &photo, nil
}

func (r *repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM photos WHERE id = $1)`, id)
	if err != nil {
		return false, database.Classify(err)
	}
	return exists, nil
}

// whereClause builds the filter conditions. Search matches title or
// caption, location matches location; both are case-insensitive substrings.
func whereClause(filter Filter) (string, []interface{}) {
	var conditions []string
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(p.title ILIKE $%d OR p.caption ILIKE $%d)",
			argIndex, argIndex,
		))
		args = append(args, likePattern(filter.Search))
		argIndex++
	}

	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("p.location ILIKE $%d", argIndex))
		args = append(args, likePattern(filter.Location))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches s literally anywhere in the column.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *repository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Photo, error) {
	where, args := whereClause(filter)
	query := fmt.Sprintf(`%s %s %s LIMIT $%d OFFSET $%d`,
		photoSelect, where, newestFirst, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	photos := []*Photo{}
	if err := r.db.SelectContext(ctx, &photos, query, args...); err != nil {
		return nil, database.Classify(fmt.Errorf("photo repository list: %w", err))
	}
	return photos, nil
}

func (r *repository) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := whereClause(filter)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM photos p `+where, args...); err != nil {
		return 0, database.Classify(fmt.Errorf("photo repository count: %w", err))
	}
	return total, nil
}

// EstimatedCount reads the planner's row estimate. A table that was never
// analyzed reports -1; the exact count is used then.
func (r *repository) EstimatedCount(ctx context.Context) (int, error) {
	var estimate float64
	err := r.db.GetContext(ctx, &estimate, `SELECT reltuples FROM pg_class WHERE oid = 'photos'::regclass`)
	if err != nil {
		return 0, database.Classify(fmt.Errorf("photo repository estimate: %w", err))
	}
	if estimate < 0 {
		return r.Count(ctx, Filter{})
	}
	return int(estimate), nil
}

func (r *repository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]*Photo, error) {
	photos := []*Photo{}
	query := photoSelect + ` WHERE p.creator_id = $1 ` + newestFirst
	if err := r.db.SelectContext(ctx, &photos, query, creatorID); err != nil {
		return nil, database.Classify(fmt.Errorf("photo repository list by creator: %w", err))
	}
	return photos, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, changes Changes) error {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if changes.Title != nil {
		add("title", *changes.Title)
	}
	if changes.Caption != nil {
		add("caption", *changes.Caption)
	}
	if changes.Location != nil {
		add("location", *changes.Location)
	}
	if changes.PeoplePresent != nil {
		add("people_present", pq.StringArray(changes.PeoplePresent))
	}

	query := `UPDATE photos SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return database.Classify(fmt.Errorf("photo repository update: %w", err))
	}
	return requireRow(res)
}

// Delete removes the photo with its comments, ratings and likes in one
// transaction.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return database.Classify(err)
	}
	defer tx.Rollback()

	for _, child := range []string{"comments", "ratings", "likes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+child+` WHERE photo_id = $1`, id); err != nil {
			return database.Classify(fmt.Errorf("photo repository delete %s: %w", child, err))
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return database.Classify(fmt.Errorf("photo repository delete: %w", err))
	}
	if err := requireRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

// ClaimPendingInsights marks the oldest photo still waiting for analysis as
// processing and returns it, or (nil, nil) when there is none. SKIP LOCKED
// lets several workers claim concurrently.
func (r *repository) ClaimPendingInsights(ctx context.Context) (*Photo, error) {
	query := `
		UPDATE photos
		SET insights_status = 'processing',
		    insights_attempts = insights_attempts + 1
		WHERE id = (
			SELECT id FROM photos
			WHERE insights_status IN ('pending', 'failed')
			  AND insights_attempts < $1
			ORDER BY upload_date ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, creator_id, media_url, insights_attempts
	`
	var photo Photo
	err := r.db.GetContext(ctx, &photo, query, MaxInsightsAttempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err)
	}
	return &photo, nil
}

func (r *repository) SaveInsights(ctx context.Context, id uuid.UUID, insights *vision.Insights) error {
	query := `
		UPDATE photos
		SET insights = $2, insights_status = 'done', updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, insights)
	if err != nil {
		return database.Classify(fmt.Errorf("photo repository save insights: %w", err))
	}
	return requireRow(res)
}

func (r *repository) MarkInsightsFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE photos SET insights_status = 'failed' WHERE id = $1`, id)
	return database.Classify(err)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

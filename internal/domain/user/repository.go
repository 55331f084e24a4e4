package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/photostream/photostream-api/internal/pkg/database"
)

// Repository defines user data access interface
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role Role) error
	UpdateProfilePicture(ctx context.Context, id uuid.UUID, url, publicID *string) error
	ListProfiles(ctx context.Context, withPicturesOnly bool, limit, offset int) ([]ProfileSummary, int, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, email, username, password_hash, role, profile_picture_url,
		       profile_picture_public_id, created_at, updated_at`

// Create creates a new user. Unique violations map to ErrEmailAlreadyExists
// and ErrUsernameTaken.
func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok {
			switch constraint {
			case "users_email_key":
				return ErrEmailAlreadyExists
			case "users_username_key":
				return ErrUsernameTaken
			}
		}
		return database.Classify(fmt.Errorf("user repository create: %w", err))
	}

	return nil
}

// GetByID returns user by ID
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns user by email
func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByUsername returns user by username
func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, database.Classify(err)
	}

	return &user, nil
}

// UpdateRole sets the user's role
func (r *repository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return database.Classify(fmt.Errorf("user repository update role: %w", err))
	}
	return requireRow(res)
}

// UpdateProfilePicture sets or clears (nil, nil) the profile picture
func (r *repository) UpdateProfilePicture(ctx context.Context, id uuid.UUID, url, publicID *string) error {
	query := `
		UPDATE users
		SET profile_picture_url = $2, profile_picture_public_id = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, url, publicID)
	if err != nil {
		return database.Classify(fmt.Errorf("user repository update profile picture: %w", err))
	}
	return requireRow(res)
}

// ListProfiles returns a page of public profiles, newest accounts first
func (r *repository) ListProfiles(ctx context.Context, withPicturesOnly bool, limit, offset int) ([]ProfileSummary, int, error) {
	where := ""
	if withPicturesOnly {
		where = "WHERE profile_picture_url IS NOT NULL"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users `+where); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("user repository count profiles: %w", err))
	}

	query := `
		SELECT id, username, profile_picture_url
		FROM users ` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	profiles := []ProfileSummary{}
	if err := r.db.SelectContext(ctx, &profiles, query, limit, offset); err != nil {
		return nil, 0, database.Classify(fmt.Errorf("user repository list profiles: %w", err))
	}

	return profiles, total, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

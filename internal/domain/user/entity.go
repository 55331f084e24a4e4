package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system
type Role string

const (
	RoleCreator  Role = "creator"
	RoleConsumer Role = "consumer"
)

// DeletedUsername is shown in place of a creator that no longer exists.
const DeletedUsername = "Unknown User"

// User represents a user account (matches users table)
type User struct {
	ID                     uuid.UUID `db:"id"`
	Email                  string    `db:"email"`
	Username               string    `db:"username"`
	PasswordHash           string    `db:"password_hash"`
	Role                   Role      `db:"role"`
	ProfilePictureURL      *string   `db:"profile_picture_url"`
	ProfilePicturePublicID *string   `db:"profile_picture_public_id"`
	CreatedAt              time.Time `db:"created_at"`
	UpdatedAt              time.Time `db:"updated_at"`
}

// IsCreator returns true if user can upload photos
func (u *User) IsCreator() bool {
	return u.Role == RoleCreator
}

// IsConsumer returns true if user can rate photos
func (u *User) IsConsumer() bool {
	return u.Role == RoleConsumer
}

// Identity is the cacheable view of a user: everything but the credential.
type Identity struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	Role              Role      `json:"role"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Identity strips the password hash.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// ProfileSummary is one entry of the public profile picture listing.
type ProfileSummary struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Username          string    `db:"username" json:"username"`
	ProfilePictureURL *string   `db:"profile_picture_url" json:"profile_picture_url"`
}

// IsValidRole checks if role is known
func IsValidRole(role string) bool {
	return role == string(RoleCreator) || role == string(RoleConsumer)
}

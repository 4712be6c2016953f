package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	ClerkID       string    `json:"clerk_id" db:"clerk_id"`
	Email         string    `json:"email" db:"email"`
	Username      string    `json:"username" db:"username"`
	FirstName     string    `json:"first_name" db:"first_name"`
	LastName      string    `json:"last_name" db:"last_name"`
	ImageURL      *string   `json:"image_url" db:"image_url"`
	Country       string    `json:"country" db:"country"`
	City          string    `json:"city" db:"city"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest carries the fields a user may change themselves. Nil
// means "leave as is". Country and city feed the scoped leaderboards on the
// next recalculation pass.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Country  *string `json:"country,omitempty"`
	City     *string `json:"city,omitempty"`
	ImageURL *string `json:"image_url,omitempty"`
}

// CreateUserRequest is what the Clerk webhook delivers when an account is
// provisioned.
type CreateUserRequest struct {
	ClerkID   string  `json:"clerk_id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	ImageURL  *string `json:"image_url,omitempty"`
}

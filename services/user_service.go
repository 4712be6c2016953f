package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CreateUser provisions the local row for a Clerk account. Re-delivered
// webhooks for the same Clerk ID update the profile instead of duplicating it.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = req.FirstName
	}

	u := &user.User{}
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (clerk_id) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
		RETURNING id, clerk_id, email, username, first_name, last_name, image_url,
		          COALESCE(country, ''), COALESCE(city, ''), email_verified, created_at, updated_at
	`, uuid.New(), req.ClerkID, req.Email, username, req.FirstName, req.LastName, req.ImageURL).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.ImageURL,
		&u.Country, &u.City, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	u := &user.User{}
	err := s.db.QueryRow(ctx, `
		SELECT id, clerk_id, email, username, first_name, last_name, image_url,
		       COALESCE(country, ''), COALESCE(city, ''), email_verified, created_at, updated_at
		FROM users
		WHERE clerk_id = $1
	`, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.ImageURL,
		&u.Country, &u.City, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

// UpdateProfileByClerkID applies the non-nil fields. A country or city change
// lands on the leaderboards at the next recalculation, not immediately.
func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{clerkID}

	addSet := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, strings.TrimSpace(*value))
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	addSet("username", req.Username)
	addSet("country", req.Country)
	addSet("city", req.City)
	addSet("image_url", req.ImageURL)

	query := fmt.Sprintf(`
		UPDATE users SET %s
		WHERE clerk_id = $1
		RETURNING id, clerk_id, email, username, first_name, last_name, image_url,
		          COALESCE(country, ''), COALESCE(city, ''), email_verified, created_at, updated_at
	`, strings.Join(setClauses, ", "))

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.ImageURL,
		&u.Country, &u.City, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// DeleteUserByClerkID removes the account and everything hanging off it via
// the schema's ON DELETE CASCADE constraints.
func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

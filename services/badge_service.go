package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/badge"
	"fitRivalAPI/internal/types/notification"
)

type BadgeService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, notifService *NotificationService) *BadgeService {
	return &BadgeService{db: db, notifService: notifService}
}

// Award gives the badge to the user if they don't have it yet. Concurrent or
// repeated awards land on the unique (user_id, badge_id) pair and become
// no-ops, never errors. The notification fires only on the first award.
func (s *BadgeService) Award(ctx context.Context, userID, badgeID uuid.UUID) (bool, error) {
	result, err := s.db.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, earned_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`, uuid.New(), userID, badgeID)
	if err != nil {
		return false, fmt.Errorf("failed to award badge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	var name, description string
	err = s.db.QueryRow(ctx, `SELECT name, description FROM badges WHERE id = $1`, badgeID).
		Scan(&name, &description)
	if err != nil {
		log.Printf("Awarded badge %s but failed to load it for notification: %v", badgeID, err)
		return true, nil
	}

	err = s.notifService.Notify(ctx, userID, notification.TypeBadgeEarned,
		"Badge earned: "+name, description,
		map[string]any{"badge_id": badgeID.String(), "badge_name": name},
	)
	if err != nil {
		log.Printf("Failed to send badge notification for user %s: %v", userID, err)
	}

	return true, nil
}

// EvaluateUser checks every active global badge against the user's
// cumulative stats and awards the ones whose threshold is met. A missing
// user is skipped silently so batch callers keep going.
func (s *BadgeService) EvaluateUser(ctx context.Context, userID uuid.UUID) error {
	snap := badge.CriteriaSnapshot{}
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(us.total_distance_meters, 0),
		       COALESCE(us.total_activities, 0),
		       COALESCE(us.sport_index, 0),
		       COALESCE(st.current_streak, 0),
		       COALESCE(st.longest_streak, 0)
		FROM users u
		LEFT JOIN user_stats us ON us.user_id = u.id
		LEFT JOIN user_streaks st ON st.user_id = u.id
		WHERE u.id = $1
	`, userID).Scan(
		&snap.TotalDistanceMeters, &snap.TotalActivities, &snap.SportIndex,
		&snap.CurrentStreak, &snap.LongestStreak,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Printf("Badge evaluation skipped: user %s not found", userID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load badge criteria snapshot: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, icon, criteria_type, criteria_value, sport_id, is_active, created_at
		FROM badges
		WHERE is_active = true AND sport_id IS NULL
	`)
	if err != nil {
		return fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var candidates []*badge.Badge
	for rows.Next() {
		b := &badge.Badge{}
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon,
			&b.CriteriaType, &b.CriteriaValue, &b.SportID, &b.IsActive, &b.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to scan badge: %w", err)
		}
		candidates = append(candidates, b)
	}
	rows.Close()

	for _, b := range candidates {
		if !b.MetBy(snap) {
			continue
		}
		if _, err := s.Award(ctx, userID, b.ID); err != nil {
			log.Printf("Failed to award badge %s to user %s: %v", b.Name, userID, err)
		}
	}

	return nil
}

// GetBadges lists all badges with the caller's earned status.
func (s *BadgeService) GetBadges(ctx context.Context, clerkID string) ([]*badge.BadgeWithStatus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
		SELECT b.id, b.name, b.description, b.icon, b.criteria_type, b.criteria_value,
		       b.sport_id, b.is_active, b.created_at,
		       CASE WHEN ub.id IS NOT NULL THEN true ELSE false END AS earned,
		       ub.earned_at
		FROM badges b
		LEFT JOIN user_badges ub ON b.id = ub.badge_id AND ub.user_id = $1
		WHERE b.is_active = true
		ORDER BY earned DESC, b.criteria_value ASC
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		b := &badge.BadgeWithStatus{}
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon,
			&b.CriteriaType, &b.CriteriaValue, &b.SportID, &b.IsActive, &b.CreatedAt,
			&b.Earned, &b.EarnedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}

	return badges, nil
}

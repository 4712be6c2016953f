package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/activity"
	"fitRivalAPI/internal/types/challenge"
	"fitRivalAPI/internal/types/notification"
)

type ChallengeService struct {
	db           *pgxpool.Pool
	badgeService *BadgeService
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, badgeService *BadgeService, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{db: db, badgeService: badgeService, notifService: notifService}
}

// participantProgress is one open challenge the activity may advance.
type participantProgress struct {
	participant challenge.ChallengeParticipant
	challenge   challenge.Challenge
}

// ApplyActivity accumulates the activity into every open challenge the user
// has joined. Only challenges inside their start/end window and matching the
// activity's sport (or carrying no sport filter) are touched; completed rows
// never accumulate again.
func (s *ChallengeService) ApplyActivity(ctx context.Context, userID uuid.UUID, act *activity.Activity) error {
	now := time.Now()

	rows, err := s.db.Query(ctx, `
		SELECT cp.id, cp.challenge_id, cp.user_id, cp.current_value, cp.is_completed, cp.completed_at, cp.joined_at,
		       c.id, c.name, c.target_type, c.target_value, c.sport_id, c.start_date, c.end_date, c.reward_badge_id, c.is_active
		FROM challenge_participants cp
		JOIN challenges c ON c.id = cp.challenge_id
		WHERE cp.user_id = $1
		  AND cp.is_completed = false
		  AND c.is_active = true
		  AND c.start_date <= $2 AND c.end_date >= $2
		  AND (c.sport_id IS NULL OR c.sport_id = $3)
	`, userID, now, act.SportID)
	if err != nil {
		return fmt.Errorf("failed to fetch open challenges: %w", err)
	}

	var open []participantProgress
	for rows.Next() {
		var pp participantProgress
		err := rows.Scan(
			&pp.participant.ID, &pp.participant.ChallengeID, &pp.participant.UserID,
			&pp.participant.CurrentValue, &pp.participant.IsCompleted, &pp.participant.CompletedAt,
			&pp.participant.JoinedAt,
			&pp.challenge.ID, &pp.challenge.Name, &pp.challenge.TargetType, &pp.challenge.TargetValue,
			&pp.challenge.SportID, &pp.challenge.StartDate, &pp.challenge.EndDate,
			&pp.challenge.RewardBadgeID, &pp.challenge.IsActive,
		)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan challenge progress: %w", err)
		}
		open = append(open, pp)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate open challenges: %w", err)
	}

	for i := range open {
		pp := &open[i]

		// The query already filters on window and sport; re-check through the
		// domain predicates so a drifting SQL clause cannot widen eligibility.
		if !pp.challenge.IsRunning(now) || !pp.challenge.MatchesSport(act.SportID) {
			continue
		}

		increment := pp.challenge.Increment(act.DistanceMeters, act.DurationSeconds, act.CaloriesBurned, act.ElevationGain)
		if increment <= 0 {
			continue
		}

		completed := pp.participant.Accumulate(increment, pp.challenge.TargetValue, now)

		_, err := s.db.Exec(ctx, `
			UPDATE challenge_participants
			SET current_value = $1, is_completed = $2, completed_at = $3
			WHERE id = $4 AND is_completed = false
		`, pp.participant.CurrentValue, pp.participant.IsCompleted, pp.participant.CompletedAt, pp.participant.ID)
		if err != nil {
			log.Printf("Failed to update challenge progress %s for user %s: %v", pp.participant.ID, userID, err)
			continue
		}

		if completed {
			s.onChallengeCompleted(ctx, userID, &pp.challenge)
		}
	}

	return nil
}

// onChallengeCompleted fires the completion notification and, when the
// challenge carries a reward badge, awards it. Duplicate badge awards are
// swallowed inside BadgeService.Award.
func (s *ChallengeService) onChallengeCompleted(ctx context.Context, userID uuid.UUID, c *challenge.Challenge) {
	err := s.notifService.Notify(ctx, userID, notification.TypeChallengeCompleted,
		"Challenge completed!",
		fmt.Sprintf("You finished \"%s\". Well done!", c.Name),
		map[string]any{"challenge_id": c.ID.String(), "challenge_name": c.Name},
	)
	if err != nil {
		log.Printf("Failed to send challenge completion notification for user %s: %v", userID, err)
	}

	if c.RewardBadgeID != nil {
		if _, err := s.badgeService.Award(ctx, userID, *c.RewardBadgeID); err != nil {
			log.Printf("Failed to award challenge reward badge %s to user %s: %v", *c.RewardBadgeID, userID, err)
		}
	}
}

// JoinChallenge enrolls the caller with zero progress. Joining twice is a
// no-op.
func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM challenges
			WHERE id = $1 AND is_active = true AND end_date >= NOW()
		)
	`, challengeID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check challenge: %w", err)
	}
	if !exists {
		return fmt.Errorf("challenge not found or already over")
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO challenge_participants (id, challenge_id, user_id, current_value, is_completed, joined_at)
		VALUES ($1, $2, $3, 0, false, NOW())
		ON CONFLICT (challenge_id, user_id) DO NOTHING
	`, uuid.New(), challengeID, userID)
	if err != nil {
		return fmt.Errorf("failed to join challenge: %w", err)
	}
	return nil
}

// GetUserChallenges lists the caller's joined challenges with progress.
func (s *ChallengeService) GetUserChallenges(ctx context.Context, clerkID string) ([]*challenge.ParticipantWithChallenge, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, c.description, c.target_type, c.target_value, c.sport_id,
		       c.scope, c.start_date, c.end_date, c.reward_badge_id, c.is_active, c.created_at,
		       cp.current_value, cp.is_completed, cp.completed_at, cp.joined_at
		FROM challenge_participants cp
		JOIN challenges c ON c.id = cp.challenge_id
		WHERE cp.user_id = $1
		ORDER BY cp.joined_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	var result []*challenge.ParticipantWithChallenge
	for rows.Next() {
		pc := &challenge.ParticipantWithChallenge{}
		err := rows.Scan(
			&pc.ID, &pc.Name, &pc.Description, &pc.TargetType, &pc.TargetValue, &pc.SportID,
			&pc.Scope, &pc.StartDate, &pc.EndDate, &pc.RewardBadgeID, &pc.IsActive, &pc.CreatedAt,
			&pc.CurrentValue, &pc.IsCompleted, &pc.CompletedAt, &pc.JoinedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		result = append(result, pc)
	}

	return result, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/notification"
	"fitRivalAPI/internal/types/streak"
)

type StreakService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewStreakService(db *pgxpool.Pool, notifService *NotificationService) *StreakService {
	return &StreakService{db: db, notifService: notifService}
}

// RecordActivity advances the user's consistency state for one activity.
// First activity ever creates the row with a one-day streak; afterwards the
// state machine in the streak package decides how the counters move.
func (s *StreakService) RecordActivity(ctx context.Context, userID uuid.UUID, activityDate time.Time) (*streak.UserStreak, error) {
	row := &streak.UserStreak{}
	err := s.db.QueryRow(ctx, `
		SELECT id, user_id, current_streak, longest_streak, last_activity_date,
		       week_start_date, weekly_progress, weekly_goal, created_at, updated_at
		FROM user_streaks
		WHERE user_id = $1
	`, userID).Scan(
		&row.ID, &row.UserID, &row.CurrentStreak, &row.LongestStreak, &row.LastActivityDate,
		&row.WeekStartDate, &row.WeeklyProgress, &row.WeeklyGoal, &row.CreatedAt, &row.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		fresh := streak.New(userID, activityDate)
		_, err := s.db.Exec(ctx, `
			INSERT INTO user_streaks (id, user_id, current_streak, longest_streak, last_activity_date,
			                          week_start_date, weekly_progress, weekly_goal, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		`, fresh.ID, fresh.UserID, fresh.CurrentStreak, fresh.LongestStreak, fresh.LastActivityDate,
			fresh.WeekStartDate, fresh.WeeklyProgress, fresh.WeeklyGoal)
		if err != nil {
			return nil, fmt.Errorf("failed to create streak: %w", err)
		}
		return fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}

	goalJustMet := row.Apply(activityDate)

	_, err = s.db.Exec(ctx, `
		UPDATE user_streaks
		SET current_streak = $1, longest_streak = $2, last_activity_date = $3,
		    week_start_date = $4, weekly_progress = $5, updated_at = NOW()
		WHERE id = $6
	`, row.CurrentStreak, row.LongestStreak, row.LastActivityDate,
		row.WeekStartDate, row.WeeklyProgress, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	if goalJustMet {
		err := s.notifService.Notify(ctx, userID, notification.TypeWeeklyGoalMet,
			"Weekly goal reached!",
			fmt.Sprintf("You hit your goal of %d activities this week. Keep it rolling!", row.WeeklyGoal),
			map[string]any{"weekly_goal": row.WeeklyGoal, "weekly_progress": row.WeeklyProgress},
		)
		if err != nil {
			log.Printf("Failed to send weekly goal notification for user %s: %v", userID, err)
		}
	}

	return row, nil
}

// GetStreak returns the caller's streak, or a zeroed row for users who never
// logged an activity.
func (s *StreakService) GetStreak(ctx context.Context, clerkID string) (*streak.UserStreak, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	row := &streak.UserStreak{}
	err = s.db.QueryRow(ctx, `
		SELECT id, user_id, current_streak, longest_streak, last_activity_date,
		       week_start_date, weekly_progress, weekly_goal, created_at, updated_at
		FROM user_streaks
		WHERE user_id = $1
	`, userID).Scan(
		&row.ID, &row.UserID, &row.CurrentStreak, &row.LongestStreak, &row.LastActivityDate,
		&row.WeekStartDate, &row.WeeklyProgress, &row.WeeklyGoal, &row.CreatedAt, &row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &streak.UserStreak{UserID: userID, WeeklyGoal: streak.DefaultWeeklyGoal}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}
	return row, nil
}

package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/activity"
	"fitRivalAPI/internal/types/streak"
	"fitRivalAPI/middleware"
)

// fanOutTimeout bounds the combined per-activity gamification side effects.
const fanOutTimeout = 10 * time.Second

type ActivityService struct {
	db               *pgxpool.Pool
	streakService    *StreakService
	challengeService *ChallengeService
	badgeService     *BadgeService
}

func NewActivityService(db *pgxpool.Pool, streakService *StreakService, challengeService *ChallengeService, badgeService *BadgeService) *ActivityService {
	return &ActivityService{
		db:               db,
		streakService:    streakService,
		challengeService: challengeService,
		badgeService:     badgeService,
	}
}

// LogActivity persists one session, rolls it into the cumulative per-user
// and per-sport stats, then runs the gamification fan-out. The fan-out is
// awaited but strictly best-effort: whatever happens inside it, the logged
// activity is already durable and this call succeeds.
func (s *ActivityService) LogActivity(ctx context.Context, clerkID string, req *activity.LogActivityRequest) (*activity.Activity, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	act := &activity.Activity{
		ID:              uuid.New(),
		UserID:          userID,
		SportID:         req.SportID,
		ActivityDate:    streak.NormalizeDate(req.ActivityDate),
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		CaloriesBurned:  req.CaloriesBurned,
		ElevationGain:   req.ElevationGain,
		CreatedAt:       time.Now(),
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO activities (id, user_id, sport_id, activity_date, distance_meters,
		                        duration_seconds, calories_burned, elevation_gain, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, act.ID, act.UserID, act.SportID, act.ActivityDate, act.DistanceMeters,
		act.DurationSeconds, act.CaloriesBurned, act.ElevationGain, act.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}

	if err := s.accumulateStats(ctx, act); err != nil {
		// Counters are also rebuildable from the activities table, so a lost
		// increment is logged, not fatal.
		log.Printf("Failed to accumulate stats for activity %s: %v", act.ID, err)
	}

	s.fanOut(userID, act)

	return act, nil
}

// accumulateStats maintains the cumulative rows the calculator and badge
// evaluator read: per-sport performance and the user-level totals.
func (s *ActivityService) accumulateStats(ctx context.Context, act *activity.Activity) error {
	sessionScore := act.SessionScore()

	_, err := s.db.Exec(ctx, `
		INSERT INTO user_sport_stats (user_id, sport_id, performance_score, activity_count,
		                              total_distance_meters, total_duration_seconds, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, NOW())
		ON CONFLICT (user_id, sport_id) DO UPDATE SET
			performance_score = user_sport_stats.performance_score + EXCLUDED.performance_score,
			activity_count = user_sport_stats.activity_count + 1,
			total_distance_meters = user_sport_stats.total_distance_meters + EXCLUDED.total_distance_meters,
			total_duration_seconds = user_sport_stats.total_duration_seconds + EXCLUDED.total_duration_seconds,
			updated_at = NOW()
	`, act.UserID, act.SportID, sessionScore, act.DistanceMeters, act.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to update sport stats: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_stats (user_id, sport_index, sport_index_best, country, city,
		                        total_activities, total_distance_meters, updated_at)
		SELECT u.id, 0, 0, COALESCE(u.country, ''), COALESCE(u.city, ''), 1, $2, NOW()
		FROM users u WHERE u.id = $1
		ON CONFLICT (user_id) DO UPDATE SET
			total_activities = user_stats.total_activities + 1,
			total_distance_meters = user_stats.total_distance_meters + EXCLUDED.total_distance_meters,
			updated_at = NOW()
	`, act.UserID, act.DistanceMeters)
	if err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}

	return nil
}

// fanOut runs the three per-activity triggers (streak, challenges, badges)
// as independent tasks under one shared timeout. Each failure is logged and
// counted; none of them can fail the activity-logging call, and one task
// blowing up never stops the others.
func (s *ActivityService) fanOut(userID uuid.UUID, act *activity.Activity) {
	ctx, cancel := context.WithTimeout(context.Background(), fanOutTimeout)
	defer cancel()

	var wg sync.WaitGroup
	run := func(task string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Gamification task %s panicked for user %s: %v", task, userID, r)
					middleware.FanOutFailures.WithLabelValues(task).Inc()
				}
			}()
			if err := fn(ctx); err != nil {
				log.Printf("Gamification task %s failed for user %s: %v", task, userID, err)
				middleware.FanOutFailures.WithLabelValues(task).Inc()
			}
		}()
	}

	run("streak", func(ctx context.Context) error {
		_, err := s.streakService.RecordActivity(ctx, userID, act.ActivityDate)
		return err
	})
	run("challenges", func(ctx context.Context) error {
		return s.challengeService.ApplyActivity(ctx, userID, act)
	})
	run("badges", func(ctx context.Context) error {
		return s.badgeService.EvaluateUser(ctx, userID)
	})

	wg.Wait()
}

// GetRecentActivities lists the caller's latest sessions.
func (s *ActivityService) GetRecentActivities(ctx context.Context, clerkID string, limit int) ([]*activity.Activity, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, sport_id, activity_date, distance_meters,
		       duration_seconds, calories_burned, elevation_gain, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY activity_date DESC, created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	var activities []*activity.Activity
	for rows.Next() {
		act := &activity.Activity{}
		err := rows.Scan(&act.ID, &act.UserID, &act.SportID, &act.ActivityDate, &act.DistanceMeters,
			&act.DurationSeconds, &act.CaloriesBurned, &act.ElevationGain, &act.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, act)
	}

	return activities, nil
}

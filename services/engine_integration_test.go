package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitRivalAPI/internal/types/activity"
)

// setupTestPool connects to the database named by TEST_DATABASE_URL. Tests
// that touch real tables are skipped when it is not set, so the pure suites
// still run everywhere.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	godotenv.Load("../.env")

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "failed to create test pool")
	require.NoError(t, pool.Ping(ctx), "failed to ping test database")

	t.Cleanup(pool.Close)
	return pool
}

// createTestUser inserts a throwaway user and registers cleanup for it and
// every engine row keyed by it.
func createTestUser(t *testing.T, pool *pgxpool.Pool) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	clerkID := "test_clerk_" + userID.String()[:8]

	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'Test', 'User', NULL, NOW(), NOW())
	`, userID, clerkID, clerkID+"@example.com", "user_"+userID.String()[:8])
	require.NoError(t, err, "failed to insert test user")

	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{
			"notifications", "user_badges", "challenge_participants",
			"user_streaks", "user_sport_stats", "user_stats", "activities",
		} {
			pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID)
		}
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})
	return userID, clerkID
}

func TestAwardBadgeTwiceLeavesOneRow(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	userID, _ := createTestUser(t, pool)

	notifService := NewNotificationService(pool)
	t.Cleanup(notifService.Stop)
	badgeService := NewBadgeService(pool, notifService)

	badgeID := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO badges (id, name, description, icon, criteria_type, criteria_value, sport_id, is_active, created_at)
		VALUES ($1, 'First Steps', 'Log your first activity', 'medal', 'total_activities', 1, NULL, true, NOW())
	`, badgeID)
	require.NoError(t, err, "failed to insert test badge")
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM user_badges WHERE badge_id = $1`, badgeID)
		pool.Exec(context.Background(), `DELETE FROM badges WHERE id = $1`, badgeID)
	})

	awarded, err := badgeService.Award(ctx, userID, badgeID)
	require.NoError(t, err)
	assert.True(t, awarded, "first award must report a fresh badge")

	awarded, err = badgeService.Award(ctx, userID, badgeID)
	require.NoError(t, err, "repeated award must not error")
	assert.False(t, awarded, "repeated award must be a no-op")

	var count int
	err = pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_badges WHERE user_id = $1 AND badge_id = $2`,
		userID, badgeID).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "exactly one user_badges row after a duplicate award")
}

func TestLogActivityRunsGamificationFanOut(t *testing.T) {
	pool := setupTestPool(t)
	ctx := context.Background()

	userID, clerkID := createTestUser(t, pool)

	notifService := NewNotificationService(pool)
	t.Cleanup(notifService.Stop)
	badgeService := NewBadgeService(pool, notifService)
	streakService := NewStreakService(pool, notifService)
	challengeService := NewChallengeService(pool, badgeService, notifService)
	activityService := NewActivityService(pool, streakService, challengeService, badgeService)

	act, err := activityService.LogActivity(ctx, clerkID, &activity.LogActivityRequest{
		SportID:         uuid.New(),
		ActivityDate:    time.Now(),
		DistanceMeters:  5000,
		DurationSeconds: 1800,
		CaloriesBurned:  350,
		ElevationGain:   40,
	})
	require.NoError(t, err)
	require.NotNil(t, act)

	var stored int
	err = pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE id = $1`, act.ID).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, 1, stored, "logged activity must be durable")

	// The fan-out is awaited inside LogActivity, so the streak and stats rows
	// are in place by the time it returns.
	var currentStreak int
	err = pool.QueryRow(ctx,
		`SELECT current_streak FROM user_streaks WHERE user_id = $1`, userID).Scan(&currentStreak)
	require.NoError(t, err, "first activity must create the streak row")
	assert.Equal(t, 1, currentStreak)

	var totalActivities int
	err = pool.QueryRow(ctx,
		`SELECT total_activities FROM user_stats WHERE user_id = $1`, userID).Scan(&totalActivities)
	require.NoError(t, err, "first activity must create the stats row")
	assert.Equal(t, 1, totalActivities)
}

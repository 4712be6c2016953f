package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/types/stats"
)

type StatsService struct {
	db *pgxpool.Pool
}

func NewStatsService(db *pgxpool.Pool) *StatsService {
	return &StatsService{db: db}
}

// UserStatsResponse bundles the aggregate row with the per-sport breakdown.
type UserStatsResponse struct {
	stats.UserStats
	Sports []stats.UserSportStats `json:"sports"`
}

// GetUserStats returns the caller's aggregates as of the last recalculation.
// Users who never logged an activity get a zeroed row, not an error.
func (s *StatsService) GetUserStats(ctx context.Context, clerkID string) (*UserStatsResponse, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	resp := &UserStatsResponse{}
	err = s.db.QueryRow(ctx, `
		SELECT user_id, sport_index, sport_index_best, COALESCE(country, ''), COALESCE(city, ''),
		       COALESCE(global_rank, 0), COALESCE(country_rank, 0), COALESCE(city_rank, 0),
		       total_activities, total_distance_meters, updated_at
		FROM user_stats
		WHERE user_id = $1
	`, userID).Scan(
		&resp.UserID, &resp.SportIndex, &resp.SportIndexBest, &resp.Country, &resp.City,
		&resp.GlobalRank, &resp.CountryRank, &resp.CityRank,
		&resp.TotalActivities, &resp.TotalDistanceMeters, &resp.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		resp.UserID = userID
	} else if err != nil {
		return nil, fmt.Errorf("failed to fetch user stats: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT user_id, sport_id, performance_score, activity_count,
		       total_distance_meters, total_duration_seconds, updated_at
		FROM user_sport_stats
		WHERE user_id = $1
		ORDER BY performance_score DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sport stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ss stats.UserSportStats
		err := rows.Scan(&ss.UserID, &ss.SportID, &ss.PerformanceScore, &ss.ActivityCount,
			&ss.TotalDistanceMeters, &ss.TotalDurationSeconds, &ss.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sport stats: %w", err)
		}
		resp.Sports = append(resp.Sports, ss)
	}

	return resp, nil
}

package stats

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is the per-user aggregate the ranking engine maintains.
// sport_index is always within [0, 1000] and sport_index_best never
// decreases. Rank columns are a cache derived from the last batch
// recalculation, never a source of truth.
type UserStats struct {
	UserID              uuid.UUID `json:"user_id" db:"user_id"`
	SportIndex          int       `json:"sport_index" db:"sport_index"`
	SportIndexBest      int       `json:"sport_index_best" db:"sport_index_best"`
	Country             string    `json:"country" db:"country"`
	City                string    `json:"city" db:"city"`
	GlobalRank          int       `json:"global_rank" db:"global_rank"`
	CountryRank         int       `json:"country_rank" db:"country_rank"`
	CityRank            int       `json:"city_rank" db:"city_rank"`
	TotalActivities     int       `json:"total_activities" db:"total_activities"`
	TotalDistanceMeters float64   `json:"total_distance_meters" db:"total_distance_meters"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// UserSportStats accumulates per-(user, sport) performance. Written only by
// the activity ingestion path, read by the calculator and sport leaderboards.
type UserSportStats struct {
	UserID               uuid.UUID `json:"user_id" db:"user_id"`
	SportID              uuid.UUID `json:"sport_id" db:"sport_id"`
	PerformanceScore     float64   `json:"performance_score" db:"performance_score"`
	ActivityCount        int       `json:"activity_count" db:"activity_count"`
	TotalDistanceMeters  float64   `json:"total_distance_meters" db:"total_distance_meters"`
	TotalDurationSeconds int       `json:"total_duration_seconds" db:"total_duration_seconds"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

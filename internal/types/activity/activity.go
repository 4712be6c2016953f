package activity

import (
	"time"

	"github.com/google/uuid"
)

// Activity is one logged exercise session. Rows are immutable once created;
// the gamification engine only ever reads them.
type Activity struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	SportID         uuid.UUID `json:"sport_id" db:"sport_id"`
	ActivityDate    time.Time `json:"activity_date" db:"activity_date"`
	DistanceMeters  float64   `json:"distance_meters" db:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	CaloriesBurned  int       `json:"calories_burned" db:"calories_burned"`
	ElevationGain   float64   `json:"elevation_gain" db:"elevation_gain"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

type LogActivityRequest struct {
	SportID         uuid.UUID `json:"sport_id"`
	ActivityDate    time.Time `json:"activity_date"`
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds int       `json:"duration_seconds"`
	CaloriesBurned  int       `json:"calories_burned"`
	ElevationGain   float64   `json:"elevation_gain"`
}

// SessionScore converts one session into the cumulative performance points
// added to the user's per-sport stats. Distance dominates, with duration,
// calories and climb contributing smaller shares.
func (a *Activity) SessionScore() float64 {
	score := a.DistanceMeters*0.01 +
		float64(a.DurationSeconds)/60.0 +
		float64(a.CaloriesBurned)*0.1 +
		a.ElevationGain*0.5
	if score < 0 {
		return 0
	}
	return score
}

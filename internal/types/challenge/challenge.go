package challenge

import (
	"time"

	"github.com/google/uuid"
)

type TargetType string

const (
	TargetDistance   TargetType = "distance"
	TargetDuration   TargetType = "duration"
	TargetActivities TargetType = "activities"
	TargetCalories   TargetType = "calories"
	TargetElevation  TargetType = "elevation"
)

type Scope string

const (
	ScopePublic Scope = "public"
	ScopeTeam   Scope = "team"
)

// Challenge definitions are treated as immutable once participants exist.
type Challenge struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	TargetType    TargetType `json:"target_type" db:"target_type"`
	TargetValue   float64    `json:"target_value" db:"target_value"`
	SportID       *uuid.UUID `json:"sport_id,omitempty" db:"sport_id"`
	Scope         Scope      `json:"scope" db:"scope"`
	StartDate     time.Time  `json:"start_date" db:"start_date"`
	EndDate       time.Time  `json:"end_date" db:"end_date"`
	RewardBadgeID *uuid.UUID `json:"reward_badge_id,omitempty" db:"reward_badge_id"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// ChallengeParticipant accumulates one user's progress. current_value only
// grows, and a completed row is never touched again.
type ChallengeParticipant struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ChallengeID  uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentValue float64    `json:"current_value" db:"current_value"`
	IsCompleted  bool       `json:"is_completed" db:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	JoinedAt     time.Time  `json:"joined_at" db:"joined_at"`
}

// IsRunning reports whether the challenge accepts progress at the given time.
func (c *Challenge) IsRunning(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// MatchesSport reports whether an activity in the given sport counts toward
// this challenge. A nil sport filter matches every sport.
func (c *Challenge) MatchesSport(sportID uuid.UUID) bool {
	return c.SportID == nil || *c.SportID == sportID
}

// Increment returns how much one activity advances this challenge's target
// metric. Unknown target types contribute nothing.
func (c *Challenge) Increment(distanceMeters float64, durationSeconds, caloriesBurned int, elevationGain float64) float64 {
	switch c.TargetType {
	case TargetDistance:
		return distanceMeters
	case TargetDuration:
		return float64(durationSeconds)
	case TargetActivities:
		return 1
	case TargetCalories:
		return float64(caloriesBurned)
	case TargetElevation:
		return elevationGain
	default:
		return 0
	}
}

// Accumulate adds progress to the participant row and reports whether this
// call flipped it to completed. Completed rows ignore further progress.
func (p *ChallengeParticipant) Accumulate(increment, targetValue float64, now time.Time) bool {
	if p.IsCompleted || increment <= 0 {
		return false
	}
	p.CurrentValue += increment
	if p.CurrentValue >= targetValue {
		p.IsCompleted = true
		completedAt := now
		p.CompletedAt = &completedAt
		return true
	}
	return false
}

// ParticipantWithChallenge is the read-model row for a user's challenge list.
type ParticipantWithChallenge struct {
	Challenge
	CurrentValue float64    `json:"current_value"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
}

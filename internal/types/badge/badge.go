package badge

import (
	"time"

	"github.com/google/uuid"
)

type CriteriaType string

const (
	CriteriaTotalDistance   CriteriaType = "total_distance"
	CriteriaTotalActivities CriteriaType = "total_activities"
	CriteriaSportIndex      CriteriaType = "sport_index"
	CriteriaStreakDays      CriteriaType = "streak_days"
	CriteriaLongestStreak   CriteriaType = "longest_streak"
)

type Badge struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	Icon          string       `json:"icon" db:"icon"`
	CriteriaType  CriteriaType `json:"criteria_type" db:"criteria_type"`
	CriteriaValue float64      `json:"criteria_value" db:"criteria_value"`
	SportID       *uuid.UUID   `json:"sport_id,omitempty" db:"sport_id"`
	IsActive      bool         `json:"is_active" db:"is_active"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// UserBadge existence is the awarded flag; the (user_id, badge_id) pair is
// unique and insert attempts for an existing pair are no-ops.
type UserBadge struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID  uuid.UUID `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

type BadgeWithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// CriteriaSnapshot is the slice of cumulative user state the evaluator
// compares badge thresholds against.
type CriteriaSnapshot struct {
	TotalDistanceMeters float64
	TotalActivities     int
	SportIndex          int
	CurrentStreak       int
	LongestStreak       int
}

// MetBy reports whether the snapshot satisfies this badge's criteria.
// Sport-scoped badges never match here; per-sport evaluation is a planned
// extension of the evaluator, not of this predicate.
func (b *Badge) MetBy(snap CriteriaSnapshot) bool {
	if b.SportID != nil {
		return false
	}
	switch b.CriteriaType {
	case CriteriaTotalDistance:
		return snap.TotalDistanceMeters >= b.CriteriaValue
	case CriteriaTotalActivities:
		return float64(snap.TotalActivities) >= b.CriteriaValue
	case CriteriaSportIndex:
		return float64(snap.SportIndex) >= b.CriteriaValue
	case CriteriaStreakDays:
		return float64(snap.CurrentStreak) >= b.CriteriaValue
	case CriteriaLongestStreak:
		return float64(snap.LongestStreak) >= b.CriteriaValue
	default:
		return false
	}
}

package streak

import (
	"time"

	"github.com/google/uuid"
)

// DefaultWeeklyGoal is used when a user never picked an explicit goal.
const DefaultWeeklyGoal = 3

// UserStreak tracks day-by-day consistency plus progress toward the weekly
// activity goal. current_streak never exceeds longest_streak after an update,
// and weekly_progress restarts whenever week_start_date moves forward.
type UserStreak struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date" db:"last_activity_date"`
	WeekStartDate    time.Time  `json:"week_start_date" db:"week_start_date"`
	WeeklyProgress   int        `json:"weekly_progress" db:"weekly_progress"`
	WeeklyGoal       int        `json:"weekly_goal" db:"weekly_goal"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// New builds the streak row for a user's first recorded activity.
func New(userID uuid.UUID, activityDate time.Time) *UserStreak {
	day := NormalizeDate(activityDate)
	return &UserStreak{
		ID:               uuid.New(),
		UserID:           userID,
		CurrentStreak:    1,
		LongestStreak:    1,
		LastActivityDate: &day,
		WeekStartDate:    ISOWeekStart(day),
		WeeklyProgress:   1,
		WeeklyGoal:       DefaultWeeklyGoal,
	}
}

// Apply advances the streak state for one activity logged on activityDate.
// Same-day repeats keep the day counter unchanged, a one-day gap extends it,
// anything longer resets it to 1. Activities dated before the last recorded
// day are ignored entirely: product intent for backdated entries is still
// unsettled, so they must not disturb the counters.
// Returns true when this activity is the one that completes the weekly goal.
func (s *UserStreak) Apply(activityDate time.Time) bool {
	day := NormalizeDate(activityDate)

	if s.LastActivityDate != nil {
		diff := DaysBetween(day, *s.LastActivityDate)
		switch {
		case diff < 0:
			return false
		case diff == 0:
			// same-day repeat, day counter untouched
		case diff == 1:
			s.CurrentStreak++
			if s.CurrentStreak > s.LongestStreak {
				s.LongestStreak = s.CurrentStreak
			}
		default:
			s.CurrentStreak = 1
		}
	} else {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
	}
	s.LastActivityDate = &day

	goal := s.WeeklyGoal
	if goal <= 0 {
		goal = DefaultWeeklyGoal
	}

	weekStart := ISOWeekStart(day)
	before := s.WeeklyProgress
	if !weekStart.Equal(s.WeekStartDate) {
		s.WeekStartDate = weekStart
		s.WeeklyProgress = 1
		before = 0
	} else {
		s.WeeklyProgress++
	}

	return before < goal && s.WeeklyProgress >= goal
}

// NormalizeDate truncates a timestamp to its calendar day in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns a-b in whole calendar days. Both arguments are
// normalized first, so intra-day offsets never shift the result.
func DaysBetween(a, b time.Time) int {
	return int(NormalizeDate(a).Sub(NormalizeDate(b)).Hours() / 24)
}

// ISOWeekStart returns the Monday of the ISO week containing t.
func ISOWeekStart(t time.Time) time.Time {
	day := NormalizeDate(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

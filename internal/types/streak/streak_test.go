package streak

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewStartsAtOne(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 1))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.LongestStreak)
	assert.Equal(t, 1, s.WeeklyProgress)
	assert.Equal(t, DefaultWeeklyGoal, s.WeeklyGoal)
	require.NotNil(t, s.LastActivityDate)
	assert.Equal(t, day(2024, time.January, 1), *s.LastActivityDate)
	assert.Equal(t, day(2024, time.January, 1), s.WeekStartDate) // Jan 1 2024 is a Monday
}

func TestApplyConsecutiveDayExtends(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 1))
	s.Apply(day(2024, time.January, 2))

	assert.Equal(t, 2, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestStreak)
}

func TestApplySameDayKeepsStreak(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 1))
	s.Apply(day(2024, time.January, 1))

	assert.Equal(t, 1, s.CurrentStreak)
	// Same-day repeats still count toward the weekly goal.
	assert.Equal(t, 2, s.WeeklyProgress)
}

func TestApplyGapResets(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 1))
	s.Apply(day(2024, time.January, 2))
	s.Apply(day(2024, time.January, 3))
	require.Equal(t, 3, s.CurrentStreak)

	s.Apply(day(2024, time.January, 6))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestStreak, "longest streak survives the reset")
}

func TestApplyBackdatedIsIgnored(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 10))
	before := *s

	goalMet := s.Apply(day(2024, time.January, 5))

	assert.False(t, goalMet)
	assert.Equal(t, before.CurrentStreak, s.CurrentStreak)
	assert.Equal(t, before.WeeklyProgress, s.WeeklyProgress)
	assert.Equal(t, *before.LastActivityDate, *s.LastActivityDate)
}

func TestApplyNormalizesTimestamps(t *testing.T) {
	s := New(uuid.New(), time.Date(2024, time.January, 1, 23, 59, 0, 0, time.UTC))
	s.Apply(time.Date(2024, time.January, 2, 0, 1, 0, 0, time.UTC))

	assert.Equal(t, 2, s.CurrentStreak, "intra-day times must not affect the day diff")
}

func TestApplyWeeklyGoalFiresExactlyOnce(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 1)) // Monday, progress 1

	assert.False(t, s.Apply(day(2024, time.January, 2))) // progress 2
	assert.True(t, s.Apply(day(2024, time.January, 3)))  // progress 3, goal met now
	assert.False(t, s.Apply(day(2024, time.January, 4))) // already met this week
}

func TestApplyWeekRollover(t *testing.T) {
	s := New(uuid.New(), day(2024, time.January, 5)) // Friday
	s.Apply(day(2024, time.January, 6))
	require.Equal(t, 2, s.WeeklyProgress)

	// Next Monday starts a fresh weekly window.
	s.Apply(day(2024, time.January, 8))

	assert.Equal(t, day(2024, time.January, 8), s.WeekStartDate)
	assert.Equal(t, 1, s.WeeklyProgress)
}

func TestISOWeekStart(t *testing.T) {
	monday := day(2024, time.January, 1)

	assert.Equal(t, monday, ISOWeekStart(monday))
	assert.Equal(t, monday, ISOWeekStart(day(2024, time.January, 3)))
	assert.Equal(t, monday, ISOWeekStart(day(2024, time.January, 7))) // Sunday belongs to Monday's week
	assert.Equal(t, day(2024, time.January, 8), ISOWeekStart(day(2024, time.January, 8)))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 1, DaysBetween(day(2024, time.March, 2), day(2024, time.March, 1)))
	assert.Equal(t, -3, DaysBetween(day(2024, time.March, 1), day(2024, time.March, 4)))
	assert.Equal(t, 0, DaysBetween(
		time.Date(2024, time.March, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 1, 1, 0, 0, 0, time.UTC),
	))
}

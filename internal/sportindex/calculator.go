// Package sportindex computes the composite 0-1000 Sport Index from a user's
// recent activity, relative performance, consistency, variety, trend and
// social signals. Everything here is a pure function of its inputs so the
// batch recalculator can run it with no I/O.
package sportindex

import "math"

const (
	// MaxScore bounds the composite index.
	MaxScore = 1000

	// LookbackDays is the activity window feeding the frequency component.
	LookbackDays = 28

	// DefaultPercentile is assumed when a sport has no comparison population.
	DefaultPercentile = 50.0

	frequencyCap   = 200.0
	performanceCap = 400.0
	streakCap      = 150.0
	varietyCap     = 100.0
	improvementCap = 100.0
	socialCap      = 50.0

	// zeroBaselineCredit is the fixed improvement credit when last month had
	// no distance but this month does, sidestepping an undefined ratio.
	zeroBaselineCredit = 50.0
)

// Inputs carries everything the calculator needs for one user. Percentiles
// are precomputed per sport (see PercentileRank); their count doubles as the
// user's sport variety.
type Inputs struct {
	ActivitiesLast28Days    int
	SportPercentiles        []float64
	CurrentStreak           int
	ThisMonthDistanceMeters float64
	LastMonthDistanceMeters float64
	TeamMemberships         int
}

// Compute returns the composite Sport Index, always an integer in
// [0, MaxScore]. Six independently capped components are summed and clamped.
func Compute(in Inputs) int {
	sum := frequencyComponent(in.ActivitiesLast28Days) +
		performanceComponent(in.SportPercentiles) +
		streakComponent(in.CurrentStreak) +
		varietyComponent(len(in.SportPercentiles)) +
		improvementComponent(in.ThisMonthDistanceMeters, in.LastMonthDistanceMeters) +
		socialComponent(in.TeamMemberships)

	return int(math.Round(math.Min(MaxScore, sum)))
}

// frequencyComponent rewards weekly activity volume. Eight or more
// activities per week saturate the cap.
func frequencyComponent(activitiesLast28Days int) float64 {
	if activitiesLast28Days <= 0 {
		return 0
	}
	perWeek := float64(activitiesLast28Days) / 4.0
	return math.Min(frequencyCap, perWeek*25)
}

// performanceComponent splits the cap evenly across the user's sports and
// scales each share by the user's percentile in that sport.
func performanceComponent(percentiles []float64) float64 {
	if len(percentiles) == 0 {
		return 0
	}
	share := performanceCap / float64(len(percentiles))
	var sum float64
	for _, pct := range percentiles {
		sum += pct / 100.0 * share
	}
	return math.Min(performanceCap, sum)
}

// streakComponent saturates at a 30-day streak.
func streakComponent(currentStreak int) float64 {
	if currentStreak <= 0 {
		return 0
	}
	return math.Min(streakCap, float64(currentStreak)*5)
}

// varietyComponent saturates at four distinct sports.
func varietyComponent(distinctSports int) float64 {
	if distinctSports <= 0 {
		return 0
	}
	return math.Min(varietyCap, float64(distinctSports)*25)
}

// improvementComponent compares this calendar month's distance against last
// month's. The relative gain in percent is scaled by 10 and clamped, so a 10%
// month-over-month improvement already saturates. A zero-distance last month
// with a non-zero current month earns a fixed credit instead of a ratio.
func improvementComponent(thisMonth, lastMonth float64) float64 {
	if lastMonth <= 0 {
		if thisMonth > 0 {
			return zeroBaselineCredit
		}
		return 0
	}
	changePct := (thisMonth - lastMonth) / lastMonth * 100
	return math.Max(0, math.Min(improvementCap, changePct*10))
}

// socialComponent currently scores team memberships only. Friend counts may
// extend it later, so it stays an isolated function.
func socialComponent(teamMemberships int) float64 {
	if teamMemberships <= 0 {
		return 0
	}
	return math.Min(socialCap, float64(teamMemberships)*10)
}

// PercentileRank places a score within a sport's population: the share of
// users with a strictly lower performance score, out of everyone with stats
// in that sport. The population includes the scored user; with nobody else
// to compare against the result is exactly DefaultPercentile. Always in
// [0, 100].
func PercentileRank(score float64, population []float64) float64 {
	if len(population) <= 1 {
		return DefaultPercentile
	}
	lower := 0
	for _, s := range population {
		if s < score {
			lower++
		}
	}
	return float64(lower) / float64(len(population)) * 100
}

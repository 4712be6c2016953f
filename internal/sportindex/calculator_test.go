package sportindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeZeroInputs(t *testing.T) {
	assert.Equal(t, 0, Compute(Inputs{}))
}

func TestComputeMaximalInputs(t *testing.T) {
	score := Compute(Inputs{
		ActivitiesLast28Days:    32,
		SportPercentiles:        []float64{100, 100, 100, 100},
		CurrentStreak:           30,
		ThisMonthDistanceMeters: 200000,
		LastMonthDistanceMeters: 100000,
		TeamMemberships:         5,
	})
	assert.Equal(t, MaxScore, score)
}

func TestComputeNeverExceedsMax(t *testing.T) {
	score := Compute(Inputs{
		ActivitiesLast28Days:    1000,
		SportPercentiles:        []float64{100, 100, 100, 100, 100, 100, 100, 100},
		CurrentStreak:           500,
		ThisMonthDistanceMeters: 1e9,
		LastMonthDistanceMeters: 1,
		TeamMemberships:         100,
	})
	assert.LessOrEqual(t, score, MaxScore)
	assert.GreaterOrEqual(t, score, 0)
}

func TestFrequencyComponent(t *testing.T) {
	assert.Equal(t, 0.0, frequencyComponent(0))
	// 8 activities over 4 weeks is 2 per week.
	assert.Equal(t, 50.0, frequencyComponent(8))
	assert.Equal(t, frequencyCap, frequencyComponent(32))
	assert.Equal(t, frequencyCap, frequencyComponent(100))
}

func TestPerformanceComponentSplitsAcrossSports(t *testing.T) {
	assert.Equal(t, 0.0, performanceComponent(nil))
	// One sport at the 50th percentile takes half the full cap.
	assert.InDelta(t, 200.0, performanceComponent([]float64{50}), 0.001)
	// Two sports at 100 and 0 average out to half the cap as well.
	assert.InDelta(t, 200.0, performanceComponent([]float64{100, 0}), 0.001)
	assert.InDelta(t, performanceCap, performanceComponent([]float64{100, 100, 100}), 0.001)
}

func TestStreakComponent(t *testing.T) {
	assert.Equal(t, 0.0, streakComponent(0))
	assert.Equal(t, 50.0, streakComponent(10))
	assert.Equal(t, streakCap, streakComponent(30))
	assert.Equal(t, streakCap, streakComponent(365))
}

func TestVarietyComponent(t *testing.T) {
	assert.Equal(t, 0.0, varietyComponent(0))
	assert.Equal(t, 50.0, varietyComponent(2))
	assert.Equal(t, varietyCap, varietyComponent(4))
	assert.Equal(t, varietyCap, varietyComponent(9))
}

func TestImprovementComponent(t *testing.T) {
	// 5% month-over-month gain.
	assert.InDelta(t, 50.0, improvementComponent(105000, 100000), 0.001)
	// 10% gain saturates.
	assert.Equal(t, improvementCap, improvementComponent(110000, 100000))
	assert.Equal(t, improvementCap, improvementComponent(300000, 100000))
	// Decline earns nothing.
	assert.Equal(t, 0.0, improvementComponent(90000, 100000))
	// No baseline last month: fixed credit when active, nothing when idle.
	assert.Equal(t, zeroBaselineCredit, improvementComponent(5000, 0))
	assert.Equal(t, 0.0, improvementComponent(0, 0))
}

func TestSocialComponent(t *testing.T) {
	assert.Equal(t, 0.0, socialComponent(0))
	assert.Equal(t, 20.0, socialComponent(2))
	assert.Equal(t, socialCap, socialComponent(5))
	assert.Equal(t, socialCap, socialComponent(50))
}

func TestPercentileRank(t *testing.T) {
	// No population or only the user themselves: neutral default.
	assert.Equal(t, DefaultPercentile, PercentileRank(42, nil))
	assert.Equal(t, DefaultPercentile, PercentileRank(42, []float64{42}))

	pop := []float64{10, 20, 30, 40}
	assert.Equal(t, 0.0, PercentileRank(10, pop))
	assert.Equal(t, 50.0, PercentileRank(30, pop))
	assert.Equal(t, 75.0, PercentileRank(40, pop))
	assert.Equal(t, 100.0, PercentileRank(99, pop))
}

func TestPercentileRankBounds(t *testing.T) {
	pop := []float64{5, 5, 5, 5, 5}
	got := PercentileRank(5, pop)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)
}

package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fitRivalAPI/internal/sportindex"
)

func TestComputeScoresUsesSportPopulations(t *testing.T) {
	strong := uuid.New()
	weak := uuid.New()
	sportID := uuid.New()

	snaps := map[uuid.UUID]*userSnapshot{
		strong: {
			userID:        strong,
			activities28d: 12,
			currentStreak: 5,
			sportScores:   map[uuid.UUID]float64{sportID: 900},
		},
		weak: {
			userID:        weak,
			activities28d: 12,
			currentStreak: 5,
			sportScores:   map[uuid.UUID]float64{sportID: 100},
		},
	}
	sportPops := map[uuid.UUID][]float64{sportID: {900, 100}}

	scores := computeScores(snaps, sportPops)

	assert.Len(t, scores, 2)
	assert.Greater(t, scores[strong], scores[weak],
		"higher percentile in the shared sport must yield a higher index")
	for _, score := range scores {
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, sportindex.MaxScore)
	}
}

func TestComputeScoresEmptySnapshot(t *testing.T) {
	scores := computeScores(map[uuid.UUID]*userSnapshot{}, nil)
	assert.Empty(t, scores)
}

func TestPartitionUsersSplitsByCountryAndCity(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	snaps := map[uuid.UUID]*userSnapshot{
		a: {userID: a, country: "DE", city: "Berlin"},
		b: {userID: b, country: "DE", city: "Munich"},
		c: {userID: c}, // no location on the profile
	}

	countries, cities := partitionUsers(snaps)

	assert.Len(t, countries["DE"], 2)
	assert.Len(t, cities["Berlin"], 1)
	assert.Len(t, cities["Munich"], 1)
	assert.NotContains(t, countries, "")
	assert.NotContains(t, cities, "")
}

func TestLastRunReportsFailures(t *testing.T) {
	s := NewRankingService(nil, nil)

	assert.Nil(t, s.LastRun(), "no pass has run yet")

	stats := &RecalcStats{StartedAt: time.Now(), UsersScored: 7}
	s.recordRun(stats, errors.New("snapshot phase failed: connection refused"))

	run := s.LastRun()
	assert.NotNil(t, run)
	assert.Equal(t, 7, run.Stats.UsersScored)
	assert.Equal(t, "snapshot phase failed: connection refused", run.Error)

	s.recordRun(stats, nil)
	assert.Empty(t, s.LastRun().Error, "a clean pass overwrites the failure")
}

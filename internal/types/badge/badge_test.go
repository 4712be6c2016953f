package badge

import (
	"testing"

	"github.com/google/uuid"
)

func TestMetByCriteria(t *testing.T) {
	snap := CriteriaSnapshot{
		TotalDistanceMeters: 100000,
		TotalActivities:     42,
		SportIndex:          650,
		CurrentStreak:       7,
		LongestStreak:       21,
	}

	tests := []struct {
		name     string
		criteria CriteriaType
		value    float64
		want     bool
	}{
		{"distance met", CriteriaTotalDistance, 100000, true},
		{"distance not met", CriteriaTotalDistance, 100001, false},
		{"activities met", CriteriaTotalActivities, 40, true},
		{"activities not met", CriteriaTotalActivities, 50, false},
		{"sport index met", CriteriaSportIndex, 600, true},
		{"sport index not met", CriteriaSportIndex, 700, false},
		{"streak met", CriteriaStreakDays, 7, true},
		{"streak not met", CriteriaStreakDays, 8, false},
		{"longest streak met", CriteriaLongestStreak, 14, true},
		{"unknown criteria", CriteriaType("mystery"), 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Badge{CriteriaType: tt.criteria, CriteriaValue: tt.value}
			if got := b.MetBy(snap); got != tt.want {
				t.Errorf("MetBy: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMetBySportScopedNeverMatches(t *testing.T) {
	sportID := uuid.New()
	b := &Badge{
		CriteriaType:  CriteriaTotalActivities,
		CriteriaValue: 1,
		SportID:       &sportID,
	}
	snap := CriteriaSnapshot{TotalActivities: 100}

	if b.MetBy(snap) {
		t.Error("sport-scoped badge matched the global snapshot")
	}
}

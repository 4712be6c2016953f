package challenge

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIncrementPerTargetType(t *testing.T) {
	tests := []struct {
		target TargetType
		want   float64
	}{
		{TargetDistance, 5000},
		{TargetDuration, 1800},
		{TargetActivities, 1},
		{TargetCalories, 420},
		{TargetElevation, 120.5},
		{TargetType("unknown"), 0},
	}

	for _, tt := range tests {
		c := &Challenge{TargetType: tt.target}
		got := c.Increment(5000, 1800, 420, 120.5)
		if got != tt.want {
			t.Errorf("Increment for %s: expected %v, got %v", tt.target, tt.want, got)
		}
	}
}

func TestAccumulateCompletesExactlyOnce(t *testing.T) {
	p := &ChallengeParticipant{}
	now := time.Now()

	if p.Accumulate(30000, 50000, now) {
		t.Error("30000 of 50000 should not complete")
	}
	if !p.Accumulate(25000, 50000, now) {
		t.Error("crossing the target must report completion")
	}
	if p.CompletedAt == nil {
		t.Error("completion must stamp CompletedAt")
	}

	// Completed rows never accumulate again.
	valueAtCompletion := p.CurrentValue
	if p.Accumulate(10000, 50000, now) {
		t.Error("completed participant reported completion again")
	}
	if p.CurrentValue != valueAtCompletion {
		t.Errorf("completed participant value changed: %v -> %v", valueAtCompletion, p.CurrentValue)
	}
}

func TestAccumulateIgnoresNonPositiveIncrements(t *testing.T) {
	p := &ChallengeParticipant{CurrentValue: 100}
	if p.Accumulate(0, 50, time.Now()) || p.Accumulate(-5, 50, time.Now()) {
		t.Error("non-positive increments must not complete")
	}
	if p.CurrentValue != 100 {
		t.Errorf("non-positive increment changed value to %v", p.CurrentValue)
	}
}

func TestIsRunning(t *testing.T) {
	now := time.Now()
	c := &Challenge{
		IsActive:  true,
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}

	if !c.IsRunning(now) {
		t.Error("challenge inside its window should be running")
	}
	if c.IsRunning(now.Add(48 * time.Hour)) {
		t.Error("challenge after its end date should not be running")
	}
	if c.IsRunning(now.Add(-48 * time.Hour)) {
		t.Error("challenge before its start date should not be running")
	}

	c.IsActive = false
	if c.IsRunning(now) {
		t.Error("inactive challenge should not be running")
	}
}

func TestMatchesSport(t *testing.T) {
	running := uuid.New()
	cycling := uuid.New()

	open := &Challenge{}
	if !open.MatchesSport(running) {
		t.Error("nil sport filter must match every sport")
	}

	scoped := &Challenge{SportID: &running}
	if !scoped.MatchesSport(running) {
		t.Error("matching sport rejected")
	}
	if scoped.MatchesSport(cycling) {
		t.Error("non-matching sport accepted")
	}
}

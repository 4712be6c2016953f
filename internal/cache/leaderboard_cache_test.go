package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"fitRivalAPI/internal/types/leaderboard"
)

func TestSortByRankRestoresAssignedOrder(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	// Tied scores, out of order relative to their assigned ranks.
	entries := []*leaderboard.LeaderboardEntry{
		{UserID: c, SportIndex: 700, Rank: 3},
		{UserID: a, SportIndex: 700, Rank: 1},
		{UserID: b, SportIndex: 700, Rank: 2},
	}

	sortByRank(entries)

	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
	assert.Equal(t, a, entries[0].UserID)
	assert.Equal(t, b, entries[1].UserID)
	assert.Equal(t, c, entries[2].UserID)
}

func TestBoardKeyScoping(t *testing.T) {
	assert.Equal(t, "leaderboard:global", boardKey(leaderboard.ScopeGlobal, ""))
	assert.Equal(t, "leaderboard:country:DE", boardKey(leaderboard.ScopeCountry, "DE"))
	assert.Equal(t, "leaderboard:city:Berlin:info", infoKey(leaderboard.ScopeCity, "Berlin"))
}

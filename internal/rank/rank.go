// Package rank assigns leaderboard positions within one scope partition.
package rank

import (
	"sort"

	"github.com/google/uuid"
)

type Scored struct {
	UserID uuid.UUID
	Score  int
}

type Ranked struct {
	UserID uuid.UUID
	Score  int
	Rank   int
}

// Assign orders entries by score descending and hands out sequential ranks
// 1..N with no gaps. Equal scores are broken by user ID ascending so a rerun
// over the same data always produces the same ordering.
func Assign(entries []Scored) []Ranked {
	sorted := make([]Scored, len(entries))
	copy(sorted, entries)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].UserID.String() < sorted[j].UserID.String()
	})

	ranked := make([]Ranked, len(sorted))
	for i, e := range sorted {
		ranked[i] = Ranked{UserID: e.UserID, Score: e.Score, Rank: i + 1}
	}
	return ranked
}

// Partition groups user IDs by a scope key, dropping users with an empty
// key. Used to slice the population into per-country and per-city boards.
func Partition(keys map[uuid.UUID]string) map[string][]uuid.UUID {
	parts := make(map[string][]uuid.UUID)
	for id, key := range keys {
		if key == "" {
			continue
		}
		parts[key] = append(parts[key], id)
	}
	return parts
}

// Package cache holds the Redis-backed leaderboard cache. The batch
// recalculator refreshes it at the end of every run; read endpoints treat it
// as a best-effort front for the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"fitRivalAPI/internal/types/leaderboard"
)

const (
	keyPrefix  = "leaderboard:"
	DefaultTTL = 15 * time.Minute
)

type LeaderboardCache struct {
	rdb *redis.Client
}

func NewLeaderboardCache(rdb *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb}
}

// boardKey builds the sorted-set key for one scope partition, e.g.
// "leaderboard:global" or "leaderboard:country:DE".
func boardKey(scope leaderboard.Scope, scopeValue string) string {
	if scopeValue == "" {
		return keyPrefix + string(scope)
	}
	return keyPrefix + string(scope) + ":" + scopeValue
}

func infoKey(scope leaderboard.Scope, scopeValue string) string {
	return boardKey(scope, scopeValue) + ":info"
}

// SetTop replaces the cached board for one scope partition. The sorted set
// keeps user IDs scored by their assigned rank, so Redis never invents its
// own tie order; a companion hash keeps the rendered entries so reads need
// no DB round trip.
func (c *LeaderboardCache) SetTop(ctx context.Context, scope leaderboard.Scope, scopeValue string, entries []*leaderboard.LeaderboardEntry, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	board := boardKey(scope, scopeValue)
	info := infoKey(scope, scopeValue)

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, board, info)

	for _, entry := range entries {
		member := entry.UserID.String()
		pipe.ZAdd(ctx, board, redis.Z{Score: float64(entry.Rank), Member: member})

		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
		}
		pipe.HSet(ctx, info, member, payload)
	}

	pipe.Expire(ctx, board, ttl)
	pipe.Expire(ctx, info, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache leaderboard %s: %w", board, err)
	}
	return nil
}

// GetTop returns up to limit cached entries in rank order, or nil when the
// partition is not cached.
func (c *LeaderboardCache) GetTop(ctx context.Context, scope leaderboard.Scope, scopeValue string, limit int) ([]*leaderboard.LeaderboardEntry, error) {
	board := boardKey(scope, scopeValue)
	info := infoKey(scope, scopeValue)

	members, err := c.rdb.ZRange(ctx, board, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached board %s: %w", board, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	raw, err := c.rdb.HMGet(ctx, info, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached entries %s: %w", info, err)
	}

	entries := make([]*leaderboard.LeaderboardEntry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		entry := &leaderboard.LeaderboardEntry{}
		if err := json.Unmarshal([]byte(s), entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sortByRank(entries)
	return entries, nil
}

// sortByRank orders entries by their stored Rank field, so the response
// honors the ranks the recalculator assigned even if the board and hash
// ever disagree.
func sortByRank(entries []*leaderboard.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})
}

// Invalidate drops one cached partition.
func (c *LeaderboardCache) Invalidate(ctx context.Context, scope leaderboard.Scope, scopeValue string) error {
	return c.rdb.Del(ctx, boardKey(scope, scopeValue), infoKey(scope, scopeValue)).Err()
}

package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/cache"
	"fitRivalAPI/internal/rank"
	"fitRivalAPI/internal/sportindex"
	"fitRivalAPI/internal/types/leaderboard"
	"fitRivalAPI/middleware"
)

const (
	// scopeWorkers bounds parallelism across country/city partitions.
	scopeWorkers = 4

	// cacheTopN is how many entries per partition land in Redis.
	cacheTopN = 100
)

// RankingService runs the batch recalculation: a read-only snapshot of the
// whole population, a pure scoring and ranking phase, and a batched write
// phase that is the sole mutator of the rank columns during a run. New
// activities arriving mid-run are simply picked up by the next pass.
type RankingService struct {
	db    *pgxpool.Pool
	cache *cache.LeaderboardCache

	mu      sync.Mutex
	lastRun *RecalcRun
}

func NewRankingService(db *pgxpool.Pool, lbCache *cache.LeaderboardCache) *RankingService {
	return &RankingService{db: db, cache: lbCache}
}

// RecalcRun is the outcome of the most recent pass, kept in memory so the
// status endpoint can report failures of the asynchronous trigger.
type RecalcRun struct {
	Stats *RecalcStats `json:"stats,omitempty"`
	Error string       `json:"error,omitempty"`
}

func (s *RankingService) recordRun(stats *RecalcStats, err error) {
	run := &RecalcRun{Stats: stats}
	if err != nil {
		run.Error = err.Error()
	}
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()
}

// LastRun returns the outcome of the most recent recalculation pass, or nil
// when none has finished since startup.
func (s *RankingService) LastRun() *RecalcRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// RecalcStats summarizes one recalculation pass.
type RecalcStats struct {
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	UsersScored     int           `json:"users_scored"`
	CountriesRanked int           `json:"countries_ranked"`
	CitiesRanked    int           `json:"cities_ranked"`
	PartitionErrors int           `json:"partition_errors"`
}

// userSnapshot is one user's slice of the consistent read feeding the
// calculator.
type userSnapshot struct {
	userID        uuid.UUID
	username      string
	imageURL      *string
	country       string
	city          string
	currentStreak int
	teamCount     int
	activities28d int
	thisMonth     float64
	lastMonth     float64
	sportScores   map[uuid.UUID]float64
}

// RecalculateAll recomputes every user's Sport Index and reassigns ranks in
// every scope partition. The global pass runs first (it also upserts the
// score itself), then country and city partitions run on a bounded worker
// pool. Cancellation is honored between partitions, never mid-partition.
func (s *RankingService) RecalculateAll(ctx context.Context) (stats *RecalcStats, err error) {
	stats = &RecalcStats{StartedAt: time.Now()}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
		middleware.RecalcDuration.Observe(stats.Duration.Seconds())
		s.recordRun(stats, err)
	}()

	snaps, sportPops, err := s.loadSnapshot(ctx)
	if err != nil {
		return stats, fmt.Errorf("snapshot phase failed: %w", err)
	}
	stats.UsersScored = len(snaps)
	middleware.UsersRanked.Set(float64(len(snaps)))
	if len(snaps) == 0 {
		return stats, nil
	}

	scores := computeScores(snaps, sportPops)

	// Global partition writes the scores themselves, so it must complete
	// before the narrower partitions rank on top of them.
	scored := make([]rank.Scored, 0, len(snaps))
	for id, score := range scores {
		scored = append(scored, rank.Scored{UserID: id, Score: score})
	}
	globalRanked := rank.Assign(scored)

	if err := s.writeGlobal(ctx, snaps, globalRanked); err != nil {
		return stats, fmt.Errorf("global write phase failed: %w", err)
	}
	s.refreshCache(ctx, leaderboard.ScopeGlobal, "", snaps, globalRanked)

	countryParts, cityParts := partitionUsers(snaps)
	stats.CountriesRanked = len(countryParts)
	stats.CitiesRanked = len(cityParts)

	jobs := make(chan scopeJob)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < scopeWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Cooperative cancellation between partitions; a half-ranked
				// partition is useless, so never bail mid-write.
				if ctx.Err() != nil {
					continue
				}
				if err := s.rankPartition(ctx, job, snaps, scores); err != nil {
					log.Printf("Failed to rank %s partition %q: %v", job.scope, job.value, err)
					mu.Lock()
					stats.PartitionErrors++
					mu.Unlock()
				}
			}
		}()
	}

	for value, members := range countryParts {
		jobs <- scopeJob{scope: leaderboard.ScopeCountry, column: "country_rank", value: value, members: members}
	}
	for value, members := range cityParts {
		jobs <- scopeJob{scope: leaderboard.ScopeCity, column: "city_rank", value: value, members: members}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("recalculation cancelled: %w", err)
	}

	log.Printf("Ranking recalculation done: %d users, %d countries, %d cities, %d partition errors in %s",
		stats.UsersScored, stats.CountriesRanked, stats.CitiesRanked, stats.PartitionErrors,
		time.Since(stats.StartedAt))

	return stats, nil
}

type scopeJob struct {
	scope   leaderboard.Scope
	column  string
	value   string
	members []uuid.UUID
}

// loadSnapshot is the read-only fetch phase: everything the calculator
// needs, pulled once so rank assignment works from a single consistent view.
func (s *RankingService) loadSnapshot(ctx context.Context) (map[uuid.UUID]*userSnapshot, map[uuid.UUID][]float64, error) {
	snaps := make(map[uuid.UUID]*userSnapshot)

	rows, err := s.db.Query(ctx, `
		SELECT u.id, u.username, u.image_url, COALESCE(u.country, ''), COALESCE(u.city, ''),
		       COALESCE(st.current_streak, 0), COALESCE(tm.team_count, 0)
		FROM users u
		LEFT JOIN user_streaks st ON st.user_id = u.id
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS team_count FROM team_members GROUP BY user_id
		) tm ON tm.user_id = u.id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	for rows.Next() {
		snap := &userSnapshot{sportScores: make(map[uuid.UUID]float64)}
		err := rows.Scan(&snap.userID, &snap.username, &snap.imageURL, &snap.country, &snap.city,
			&snap.currentStreak, &snap.teamCount)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan user snapshot: %w", err)
		}
		snaps[snap.userID] = snap
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	rows, err = s.db.Query(ctx, `
		SELECT user_id, COUNT(*)
		FROM activities
		WHERE activity_date >= CURRENT_DATE - $1 * INTERVAL '1 day'
		GROUP BY user_id
	`, sportindex.LookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch activity counts: %w", err)
	}
	for rows.Next() {
		var userID uuid.UUID
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		if snap, ok := snaps[userID]; ok {
			snap.activities28d = count
		}
	}
	rows.Close()

	rows, err = s.db.Query(ctx, `
		SELECT user_id,
		       COALESCE(SUM(distance_meters) FILTER (
		           WHERE activity_date >= DATE_TRUNC('month', CURRENT_DATE)), 0),
		       COALESCE(SUM(distance_meters) FILTER (
		           WHERE activity_date >= DATE_TRUNC('month', CURRENT_DATE - INTERVAL '1 month')
		             AND activity_date < DATE_TRUNC('month', CURRENT_DATE)), 0)
		FROM activities
		GROUP BY user_id
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch monthly distances: %w", err)
	}
	for rows.Next() {
		var userID uuid.UUID
		var thisMonth, lastMonth float64
		if err := rows.Scan(&userID, &thisMonth, &lastMonth); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan monthly distance: %w", err)
		}
		if snap, ok := snaps[userID]; ok {
			snap.thisMonth = thisMonth
			snap.lastMonth = lastMonth
		}
	}
	rows.Close()

	sportPops := make(map[uuid.UUID][]float64)
	rows, err = s.db.Query(ctx, `SELECT user_id, sport_id, performance_score FROM user_sport_stats`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch sport stats: %w", err)
	}
	for rows.Next() {
		var userID, sportID uuid.UUID
		var score float64
		if err := rows.Scan(&userID, &sportID, &score); err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("failed to scan sport stat: %w", err)
		}
		sportPops[sportID] = append(sportPops[sportID], score)
		if snap, ok := snaps[userID]; ok {
			snap.sportScores[sportID] = score
		}
	}
	rows.Close()

	return snaps, sportPops, nil
}

// computeScores is the pure phase: no I/O, just the calculator over the
// snapshot.
func computeScores(snaps map[uuid.UUID]*userSnapshot, sportPops map[uuid.UUID][]float64) map[uuid.UUID]int {
	scores := make(map[uuid.UUID]int, len(snaps))
	for id, snap := range snaps {
		percentiles := make([]float64, 0, len(snap.sportScores))
		for sportID, score := range snap.sportScores {
			percentiles = append(percentiles, sportindex.PercentileRank(score, sportPops[sportID]))
		}

		scores[id] = sportindex.Compute(sportindex.Inputs{
			ActivitiesLast28Days:    snap.activities28d,
			SportPercentiles:        percentiles,
			CurrentStreak:           snap.currentStreak,
			ThisMonthDistanceMeters: snap.thisMonth,
			LastMonthDistanceMeters: snap.lastMonth,
			TeamMemberships:         snap.teamCount,
		})
	}
	return scores
}

func partitionUsers(snaps map[uuid.UUID]*userSnapshot) (countries, cities map[string][]uuid.UUID) {
	countryKeys := make(map[uuid.UUID]string, len(snaps))
	cityKeys := make(map[uuid.UUID]string, len(snaps))
	for id, snap := range snaps {
		countryKeys[id] = snap.country
		cityKeys[id] = snap.city
	}
	return rank.Partition(countryKeys), rank.Partition(cityKeys)
}

// writeGlobal upserts every user's new score, high-water mark and global
// rank in one batch. Missing user_stats rows are created with defaults here,
// so the narrower partitions can assume the row exists.
func (s *RankingService) writeGlobal(ctx context.Context, snaps map[uuid.UUID]*userSnapshot, ranked []rank.Ranked) error {
	batch := &pgx.Batch{}
	for _, r := range ranked {
		snap := snaps[r.UserID]
		batch.Queue(`
			INSERT INTO user_stats (user_id, sport_index, sport_index_best, country, city,
			                        global_rank, total_activities, total_distance_meters, updated_at)
			VALUES ($1, $2, $2, $3, $4, $5, 0, 0, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				sport_index = EXCLUDED.sport_index,
				sport_index_best = GREATEST(user_stats.sport_index_best, EXCLUDED.sport_index),
				country = EXCLUDED.country,
				city = EXCLUDED.city,
				global_rank = EXCLUDED.global_rank,
				updated_at = NOW()
		`, r.UserID, r.Score, snap.country, snap.city, r.Rank)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range ranked {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to write global ranks: %w", err)
		}
	}
	return nil
}

// rankPartition assigns dense ranks within one country or city and writes
// them in a single batch.
func (s *RankingService) rankPartition(ctx context.Context, job scopeJob, snaps map[uuid.UUID]*userSnapshot, scores map[uuid.UUID]int) error {
	scored := make([]rank.Scored, 0, len(job.members))
	for _, id := range job.members {
		scored = append(scored, rank.Scored{UserID: id, Score: scores[id]})
	}
	ranked := rank.Assign(scored)

	batch := &pgx.Batch{}
	for _, r := range ranked {
		// The SQL is assembled from a fixed column name, never user input.
		batch.Queue(
			`UPDATE user_stats SET `+job.column+` = $1, updated_at = NOW() WHERE user_id = $2`,
			r.Rank, r.UserID,
		)
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range ranked {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to write %s ranks: %w", job.column, err)
		}
	}

	s.refreshCache(ctx, job.scope, job.value, snaps, ranked)
	return nil
}

// refreshCache pushes the partition's top entries into Redis. Cache trouble
// is logged and ignored; the database remains the source of truth.
func (s *RankingService) refreshCache(ctx context.Context, scope leaderboard.Scope, value string, snaps map[uuid.UUID]*userSnapshot, ranked []rank.Ranked) {
	if s.cache == nil {
		return
	}

	top := ranked
	if len(top) > cacheTopN {
		top = top[:cacheTopN]
	}

	entries := make([]*leaderboard.LeaderboardEntry, 0, len(top))
	for _, r := range top {
		snap := snaps[r.UserID]
		entries = append(entries, &leaderboard.LeaderboardEntry{
			UserID:     r.UserID,
			Username:   snap.username,
			ImageURL:   snap.imageURL,
			SportIndex: r.Score,
			Rank:       r.Rank,
		})
	}

	if err := s.cache.SetTop(ctx, scope, value, entries, cache.DefaultTTL); err != nil {
		log.Printf("Failed to refresh leaderboard cache %s/%s: %v", scope, value, err)
	}
}

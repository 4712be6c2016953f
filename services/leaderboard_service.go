package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitRivalAPI/internal/cache"
	"fitRivalAPI/internal/types/leaderboard"
)

// defaultBoardSize is the page served when the caller gives no limit.
const defaultBoardSize = 50

// LeaderboardService serves the read side: cached top entries where the
// recalculator has warmed Redis, the stored rank columns otherwise, plus the
// caller's own position regardless of whether they made the top of the board.
type LeaderboardService struct {
	db    *pgxpool.Pool
	cache *cache.LeaderboardCache
}

func NewLeaderboardService(db *pgxpool.Pool, lbCache *cache.LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{db: db, cache: lbCache}
}

// GetLeaderboard returns one scope partition of the sport-index board. The
// scope value is the caller's own country or city when not given explicitly.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, clerkID string, scope leaderboard.Scope, scopeValue string, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultBoardSize
	}

	userID, country, city, err := s.callerScope(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rankColumn := "global_rank"
	switch scope {
	case leaderboard.ScopeGlobal:
	case leaderboard.ScopeCountry:
		rankColumn = "country_rank"
		if scopeValue == "" {
			scopeValue = country
		}
	case leaderboard.ScopeCity:
		rankColumn = "city_rank"
		if scopeValue == "" {
			scopeValue = city
		}
	default:
		return nil, fmt.Errorf("unknown leaderboard scope %q", scope)
	}

	board := &leaderboard.Leaderboard{Scope: scope, ScopeValue: scopeValue}

	if s.cache != nil {
		entries, err := s.cache.GetTop(ctx, scope, scopeValue, limit)
		if err != nil {
			log.Printf("Leaderboard cache read failed for %s/%s: %v", scope, scopeValue, err)
		}
		board.Entries = entries
	}

	if board.Entries == nil {
		entries, err := s.topFromDB(ctx, scope, rankColumn, scopeValue, limit)
		if err != nil {
			return nil, err
		}
		board.Entries = entries
	}

	pos, total, err := s.userPosition(ctx, userID, scope, rankColumn, scopeValue)
	if err != nil {
		return nil, err
	}
	board.UserPosition = pos
	board.TotalUsers = total

	return board, nil
}

// GetSportLeaderboard ranks a single sport's participants by their cumulative
// performance score. Ranks are computed on read since the batch recalculator
// does not store per-sport ranks.
func (s *LeaderboardService) GetSportLeaderboard(ctx context.Context, clerkID string, sportID uuid.UUID, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultBoardSize
	}

	userID, _, _, err := s.callerScope(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT s.user_id, u.username, u.image_url, COALESCE(st.sport_index, 0), s.performance_score,
		       RANK() OVER (ORDER BY s.performance_score DESC) AS rank
		FROM user_sport_stats s
		JOIN users u ON u.id = s.user_id
		LEFT JOIN user_stats st ON st.user_id = s.user_id
		WHERE s.sport_id = $1
		ORDER BY rank
		LIMIT $2
	`, sportID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sport leaderboard: %w", err)
	}
	defer rows.Close()

	board := &leaderboard.Leaderboard{Scope: leaderboard.ScopeSport, ScopeValue: sportID.String()}
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL,
			&entry.SportIndex, &entry.Score, &entry.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sport leaderboard entry: %w", err)
		}
		board.Entries = append(board.Entries, entry)
	}

	pos := &leaderboard.LeaderboardEntry{UserID: userID}
	err = s.db.QueryRow(ctx, `
		SELECT entry.username, entry.sport_index, entry.performance_score, entry.rank, entry.total
		FROM (
			SELECT s.user_id, u.username, COALESCE(st.sport_index, 0) AS sport_index,
			       s.performance_score,
			       RANK() OVER (ORDER BY s.performance_score DESC) AS rank,
			       COUNT(*) OVER () AS total
			FROM user_sport_stats s
			JOIN users u ON u.id = s.user_id
			LEFT JOIN user_stats st ON st.user_id = s.user_id
			WHERE s.sport_id = $1
		) entry
		WHERE entry.user_id = $2
	`, sportID, userID).Scan(&pos.Username, &pos.SportIndex, &pos.Score, &pos.Rank, &board.TotalUsers)
	switch {
	case err == nil:
		board.UserPosition = pos
	case err == pgx.ErrNoRows:
		// Caller has never logged this sport; the board still renders.
		var total int
		if err := s.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM user_sport_stats WHERE sport_id = $1`, sportID).Scan(&total); err != nil {
			return nil, fmt.Errorf("failed to count sport participants: %w", err)
		}
		board.TotalUsers = total
	default:
		return nil, fmt.Errorf("failed to fetch caller sport position: %w", err)
	}

	return board, nil
}

func (s *LeaderboardService) callerScope(ctx context.Context, clerkID string) (uuid.UUID, string, string, error) {
	var userID uuid.UUID
	var country, city string
	err := s.db.QueryRow(ctx, `
		SELECT id, COALESCE(country, ''), COALESCE(city, '') FROM users WHERE clerk_id = $1
	`, clerkID).Scan(&userID, &country, &city)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("user not found: %w", err)
	}
	return userID, country, city, nil
}

func (s *LeaderboardService) topFromDB(ctx context.Context, scope leaderboard.Scope, rankColumn, scopeValue string, limit int) ([]*leaderboard.LeaderboardEntry, error) {
	query := `
		SELECT st.user_id, u.username, u.image_url, st.sport_index, st.` + rankColumn + `
		FROM user_stats st
		JOIN users u ON u.id = st.user_id
		WHERE st.` + rankColumn + ` IS NOT NULL`
	args := []any{}
	if scope != leaderboard.ScopeGlobal {
		query += fmt.Sprintf(` AND st.%s = $1`, scope)
		args = append(args, scopeValue)
	}
	query += fmt.Sprintf(` ORDER BY st.%s ASC LIMIT $%d`, rankColumn, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s leaderboard: %w", scope, err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(&entry.UserID, &entry.Username, &entry.ImageURL, &entry.SportIndex, &entry.Rank)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// userPosition fetches the caller's stored rank and the partition size. A
// caller with no stats row simply has no position yet.
func (s *LeaderboardService) userPosition(ctx context.Context, userID uuid.UUID, scope leaderboard.Scope, rankColumn, scopeValue string) (*leaderboard.LeaderboardEntry, int, error) {
	countQuery := `SELECT COUNT(*) FROM user_stats WHERE ` + rankColumn + ` IS NOT NULL`
	countArgs := []any{}
	if scope != leaderboard.ScopeGlobal {
		countQuery += fmt.Sprintf(` AND %s = $1`, scope)
		countArgs = append(countArgs, scopeValue)
	}
	var total int
	if err := s.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaderboard users: %w", err)
	}

	pos := &leaderboard.LeaderboardEntry{UserID: userID}
	var rank *int
	err := s.db.QueryRow(ctx, `
		SELECT u.username, u.image_url, st.sport_index, st.`+rankColumn+`
		FROM user_stats st
		JOIN users u ON u.id = st.user_id
		WHERE st.user_id = $1
	`, userID).Scan(&pos.Username, &pos.ImageURL, &pos.SportIndex, &rank)
	if err == pgx.ErrNoRows || (err == nil && rank == nil) {
		return nil, total, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch caller position: %w", err)
	}
	pos.Rank = *rank
	return pos, total, nil
}

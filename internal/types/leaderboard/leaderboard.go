package leaderboard

import "github.com/google/uuid"

// Scope names a leaderboard partition. Global, country and city boards rank
// by sport index; sport boards rank by per-sport performance score.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeCountry Scope = "country"
	ScopeCity    Scope = "city"
	ScopeSport   Scope = "sport"
)

type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Username   string    `json:"username" db:"username"`
	ImageURL   *string   `json:"image_url" db:"image_url"`
	SportIndex int       `json:"sport_index" db:"sport_index"`
	Score      float64   `json:"score,omitempty" db:"score"`
	Rank       int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Scope        Scope               `json:"scope"`
	ScopeValue   string              `json:"scope_value,omitempty"`
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

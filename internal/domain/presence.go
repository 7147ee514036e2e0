package domain

import "time"

// OnlinePlayer tracks one user's presence entry. At most one exists per
// user; rows older than the staleness window are pruned on every read.
type OnlinePlayer struct {
	UserID        int64     `json:"id"`
	Username      string    `json:"username"`
	BestScore     int64     `json:"best_score"`
	TotalGames    int       `json:"total_games_played"`
	LastPing      time.Time `json:"last_ping"`
	CurrentGameID *int64    `json:"-"`
	// CurrentGame is set only while the referenced session is active
	CurrentGame *CurrentGame `json:"current_game"`
}

// CurrentGame is the in-progress session annotation on a presence entry
type CurrentGame struct {
	ID    int64 `json:"id"`
	Score int64 `json:"score"`
}

// Stale reports whether a heartbeat of age now-lastPing has crossed the
// staleness window. The cutoff is inclusive: an entry exactly at the
// boundary age is offline.
func Stale(lastPing, now time.Time, window time.Duration) bool {
	return now.Sub(lastPing) >= window
}

package domain

import "time"

// HighScore is a user's single best-score ledger row
type HighScore struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	Score      int64     `json:"score"`
	AchievedAt time.Time `json:"date_achieved"`
}

// BeatsRecord reports whether candidate should replace current in the
// ledger. Equal scores never update, so the achievement timestamp is
// preserved.
func BeatsRecord(candidate, current int64) bool {
	return candidate > current
}

// LeaderboardEntry is one row of the high-score board
type LeaderboardEntry struct {
	Rank            int64     `json:"rank"`
	UserID          int64     `json:"user_id"`
	Username        string    `json:"username"`
	Score           int64     `json:"score"`
	AchievedAt      time.Time `json:"date_achieved"`
	ProfilePhotoURL string    `json:"profile_photo_url,omitempty"`
}

// ScoreEvent is a game-over score record, either produced in-process or
// ingested from the event stream
type ScoreEvent struct {
	UserID    int64     `json:"user_id"`
	GameID    int64     `json:"game_id,omitempty"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

package domain

import (
	"time"
)

// Direction is a snake heading
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ValidDirection reports whether d is a recognized heading
func ValidDirection(d Direction) bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// Cell is an [x, y] board coordinate
type Cell [2]int

// GameState is the client-reported snake game state stored with a session
type GameState struct {
	Snake     []Cell    `json:"snake"`
	Food      Cell      `json:"food"`
	Direction Direction `json:"direction"`
	Score     int64     `json:"score"`
	GameOver  bool      `json:"game_over"`
}

// NewInitialState returns the deterministic starting state for a fresh
// session: a three-segment snake in the middle column heading up, food at
// a fixed cell. Mid-game food respawns are randomized separately.
func NewInitialState() GameState {
	return GameState{
		Snake:     []Cell{{10, 10}, {10, 11}, {10, 12}},
		Food:      Cell{5, 5},
		Direction: DirectionUp,
		Score:     0,
		GameOver:  false,
	}
}

// GameSession represents one playthrough by a user
type GameSession struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"-"`
	Username  string     `json:"username,omitempty"`
	Score     int64      `json:"score"`
	GameData  GameState  `json:"game_data"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// UpdateGameRequest carries a game-state update for an active session
type UpdateGameRequest struct {
	GameData GameState `json:"game_data"`
	Score    int64     `json:"score"`
}

// PingRequest is a presence heartbeat, optionally naming the session the
// user is currently playing
type PingRequest struct {
	CurrentGameID *int64 `json:"current_game_id,omitempty"`
}

// UserSummary is the lightweight per-user stats payload
type UserSummary struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	BestScore        int64  `json:"best_score"`
	TotalGamesPlayed int    `json:"total_games_played"`
	IsOnline         bool   `json:"is_online"`
	// Rank is the realtime leaderboard position, 0 when unranked
	Rank int64 `json:"rank,omitempty"`
}

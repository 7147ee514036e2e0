package service

import (
	"context"
	"time"

	"github.com/snake-server/internal/domain"
)

// The services accept narrow store interfaces, all satisfied by
// *postgres.Repository, so the lifecycle invariants are testable
// without a database.

// UserStore provides user account persistence
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MarkOnline(ctx context.Context, userID int64, now time.Time) error
	MarkOffline(ctx context.Context, userID int64) error
	UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error)
	SetProfilePhotoURL(ctx context.Context, userID int64, url string) error
	RecordGameEnd(ctx context.Context, userID, finalScore int64) error
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// TokenStore provides bearer token persistence
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) (*domain.AuthToken, error)
	GetToken(ctx context.Context, token string) (*domain.AuthToken, error)
	DeleteToken(ctx context.Context, token string) error
	DeleteUserTokens(ctx context.Context, userID int64) error
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// GameStore provides game session persistence
type GameStore interface {
	CreateGame(ctx context.Context, userID int64, state domain.GameState) (*domain.GameSession, error)
	GetGame(ctx context.Context, gameID, userID int64) (*domain.GameSession, error)
	UpdateGame(ctx context.Context, gameID, userID int64, state domain.GameState, score int64) error
	EndGame(ctx context.Context, gameID, userID int64, now time.Time) (*domain.GameSession, error)
}

// ScoreStore provides high-score ledger persistence
type ScoreStore interface {
	UpsertHighScore(ctx context.Context, userID, score int64, achievedAt time.Time) error
	GetHighScore(ctx context.Context, userID int64) (*domain.HighScore, error)
	TopHighScores(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
	AllHighScores(ctx context.Context) (map[int64]int64, error)
	HighScoreCount(ctx context.Context) (int64, error)
}

// PresenceStore provides presence entry persistence with read-prune
// semantics
type PresenceStore interface {
	TouchPresence(ctx context.Context, userID int64, now time.Time, gameID *int64) error
	PruneAndListOnline(ctx context.Context, now time.Time, window time.Duration) ([]domain.OnlinePlayer, error)
	PruneAndCountOnline(ctx context.Context, now time.Time, window time.Duration) (int64, error)
	ClearCurrentGame(ctx context.Context, userID int64) error
	RemovePresence(ctx context.Context, userID int64) error
}

// LedgerMirror is the realtime Redis mirror of the high-score ledger
type LedgerMirror interface {
	SetScoreIfHigher(ctx context.Context, userID, score int64) (bool, error)
	Rank(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	BatchSet(ctx context.Context, scores map[int64]int64) error
}

// Broadcaster pushes realtime updates to connected websocket clients
type Broadcaster interface {
	BroadcastLeaderboard(entries []domain.LeaderboardEntry, totalPlayers int64)
	BroadcastOnlineCount(count int64)
}

// GoogleVerifier validates third-party ID tokens
type GoogleVerifier interface {
	Configured() bool
	Verify(ctx context.Context, token string) (*domain.GoogleClaims, error)
	ResolveProfilePicture(ctx context.Context, pictureURL string) (string, error)
}

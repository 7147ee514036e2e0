package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/domain"
	"github.com/snake-server/internal/validation"
)

// GameService manages the session lifecycle: active → ended, one way
type GameService struct {
	games    GameStore
	users    UserStore
	scores   *ScoreService
	presence *PresenceService
	cfg      *config.GameConfig
	logger   *slog.Logger
}

// NewGameService creates a new game service
func NewGameService(
	games GameStore,
	users UserStore,
	scores *ScoreService,
	presence *PresenceService,
	cfg *config.GameConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		games:    games,
		users:    users,
		scores:   scores,
		presence: presence,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start creates a new active session for the user. Any prior active
// session is forcibly deactivated, so at most one exists afterward, and
// the user's presence entry is pointed at the new game.
func (s *GameService) Start(ctx context.Context, userID int64) (*domain.GameSession, error) {
	game, err := s.games.CreateGame(ctx, userID, domain.NewInitialState())
	if err != nil {
		return nil, fmt.Errorf("starting game: %w", err)
	}
	s.logger.Info("game started", "user_id", userID, "game_id", game.ID)
	return game, nil
}

// Update overwrites an active session's state and score. A game-over
// flag in the submitted state ends the session as part of the same
// operation. Updates to an inactive session are a conflict.
func (s *GameService) Update(ctx context.Context, gameID, userID int64, req domain.UpdateGameRequest) (*domain.GameSession, error) {
	if err := validation.ValidateGameState(req.GameData, s.cfg.GridSize); err != nil {
		return nil, err
	}

	if err := s.games.UpdateGame(ctx, gameID, userID, req.GameData, req.Score); err != nil {
		return nil, err
	}

	if req.GameData.GameOver {
		return s.End(ctx, gameID, userID)
	}
	return s.games.GetGame(ctx, gameID, userID)
}

// End transitions a session to ended exactly once: stamps ended_at,
// increments the user's play counter, raises best_score when exceeded,
// offers the final score to the ledger and clears the presence
// current-game reference. Ending an already-ended session is a
// conflict and re-applies nothing.
func (s *GameService) End(ctx context.Context, gameID, userID int64) (*domain.GameSession, error) {
	now := time.Now()
	game, err := s.games.EndGame(ctx, gameID, userID, now)
	if err != nil {
		return nil, err
	}

	if err := s.users.RecordGameEnd(ctx, userID, game.Score); err != nil {
		return nil, fmt.Errorf("recording game end: %w", err)
	}

	if err := s.scores.Submit(ctx, domain.ScoreEvent{
		UserID:    userID,
		GameID:    game.ID,
		Score:     game.Score,
		Timestamp: now,
	}); err != nil {
		return nil, fmt.Errorf("submitting final score: %w", err)
	}

	if err := s.presence.ClearCurrentGame(ctx, userID); err != nil {
		s.logger.Warn("failed to clear current game reference", "user_id", userID, "error", err)
	}

	s.logger.Info("game ended", "user_id", userID, "game_id", game.ID, "final_score", game.Score)
	return game, nil
}

// Get retrieves a session owned by the user
func (s *GameService) Get(ctx context.Context, gameID, userID int64) (*domain.GameSession, error) {
	return s.games.GetGame(ctx, gameID, userID)
}

// Summary returns the caller's lightweight stats
func (s *GameService) Summary(ctx context.Context, userID int64) (*domain.UserSummary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UserSummary{
		ID:               user.ID,
		Username:         user.Username,
		BestScore:        user.BestScore,
		TotalGamesPlayed: user.TotalGamesPlayed,
		IsOnline:         user.IsOnline,
		Rank:             s.scores.Rank(ctx, userID),
	}, nil
}

// GenerateFood returns a random in-bounds food cell for mid-game
// respawns
func (s *GameService) GenerateFood() domain.Cell {
	return domain.Cell{rand.Intn(s.cfg.GridSize), rand.Intn(s.cfg.GridSize)}
}

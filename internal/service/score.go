package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/domain"
)

// ScoreService maintains the best-score ledger: at most one row per
// user, holding the maximum score ever submitted
type ScoreService struct {
	store  ScoreStore
	mirror LedgerMirror
	hub    Broadcaster
	cfg    *config.GameConfig
	logger *slog.Logger
}

// NewScoreService creates a new score service
func NewScoreService(store ScoreStore, mirror LedgerMirror, cfg *config.GameConfig, logger *slog.Logger) *ScoreService {
	return &ScoreService{
		store:  store,
		mirror: mirror,
		cfg:    cfg,
		logger: logger,
	}
}

// SetHub attaches the websocket hub for leaderboard broadcasts
func (s *ScoreService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Submit offers a score to the ledger. Lower or equal submissions are a
// true no-op; a first submission always creates the row. The realtime
// mirror is updated and, when the board changed, the new top is
// broadcast.
func (s *ScoreService) Submit(ctx context.Context, event domain.ScoreEvent) error {
	if err := s.store.UpsertHighScore(ctx, event.UserID, event.Score, event.Timestamp); err != nil {
		return err
	}

	changed := true
	if s.mirror != nil {
		var err error
		changed, err = s.mirror.SetScoreIfHigher(ctx, event.UserID, event.Score)
		if err != nil {
			// The mirror is rebuilt periodically; Postgres stays correct
			s.logger.Warn("failed to update ledger mirror", "user_id", event.UserID, "error", err)
			changed = true
		}
	}

	if changed {
		s.broadcastTop(ctx)
	}
	return nil
}

// SubmitBatch offers multiple scores, continuing past individual
// failures. Used by the event stream ingestion path.
func (s *ScoreService) SubmitBatch(ctx context.Context, events []domain.ScoreEvent) error {
	for _, event := range events {
		if err := s.Submit(ctx, event); err != nil {
			s.logger.Error("failed to submit score in batch",
				"user_id", event.UserID,
				"error", err,
			)
		}
	}
	return nil
}

// Top returns the n best distinct-user scores from the authoritative
// store, ordered by score descending with ties broken by most recent
// achievement
func (s *ScoreService) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 || n > s.cfg.TopScores {
		n = s.cfg.TopScores
	}
	entries, err := s.store.TopHighScores(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("getting top scores: %w", err)
	}
	return entries, nil
}

// Rank returns a user's 1-indexed realtime position, or 0 when the user
// has no recorded score or the mirror is unavailable
func (s *ScoreService) Rank(ctx context.Context, userID int64) int64 {
	if s.mirror == nil {
		return 0
	}
	rank, err := s.mirror.Rank(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("failed to read rank from mirror", "user_id", userID, "error", err)
		}
		return 0
	}
	return rank
}

func (s *ScoreService) broadcastTop(ctx context.Context) {
	if s.hub == nil {
		return
	}
	entries, err := s.store.TopHighScores(ctx, s.cfg.TopScores)
	if err != nil {
		s.logger.Warn("failed to load top scores for broadcast", "error", err)
		return
	}
	s.hub.BroadcastLeaderboard(entries, s.totalPlayers(ctx))
}

// totalPlayers reads the ledger cardinality from the mirror, which was
// updated just before any broadcast, falling back to the authoritative
// store when the mirror is unavailable
func (s *ScoreService) totalPlayers(ctx context.Context) int64 {
	if s.mirror != nil {
		count, err := s.mirror.Count(ctx)
		if err == nil {
			return count
		}
		s.logger.Warn("failed to count mirrored scores", "error", err)
	}
	total, err := s.store.HighScoreCount(ctx)
	if err != nil {
		s.logger.Warn("failed to count scores for broadcast", "error", err)
	}
	return total
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/snake-server/internal/domain"
)

// PresenceService tracks who is currently online. Liveness is checked
// lazily: every read prunes entries whose heartbeat has crossed the
// staleness window, so no background sweep is needed.
type PresenceService struct {
	store  PresenceStore
	users  UserStore
	hub    Broadcaster
	window time.Duration
	logger *slog.Logger
}

// NewPresenceService creates a new presence service
func NewPresenceService(store PresenceStore, users UserStore, window time.Duration, logger *slog.Logger) *PresenceService {
	return &PresenceService{
		store:  store,
		users:  users,
		window: window,
		logger: logger,
	}
}

// SetHub attaches the websocket hub for online-count broadcasts
func (s *PresenceService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Heartbeat refreshes a user's presence entry. When gameID names a
// session owned by the user it becomes the entry's current game;
// otherwise the reference is left untouched. The user's coarse
// is_online flag and last_activity are refreshed as a side effect.
func (s *PresenceService) Heartbeat(ctx context.Context, userID int64, gameID *int64) error {
	now := time.Now()
	if err := s.users.MarkOnline(ctx, userID, now); err != nil {
		return fmt.Errorf("refreshing user activity: %w", err)
	}
	if err := s.store.TouchPresence(ctx, userID, now, gameID); err != nil {
		return err
	}
	s.broadcastCount(ctx)
	return nil
}

// ListOnline prunes stale entries and returns the remaining players,
// ordered by username
func (s *PresenceService) ListOnline(ctx context.Context) ([]domain.OnlinePlayer, error) {
	return s.store.PruneAndListOnline(ctx, time.Now(), s.window)
}

// CountOnline prunes stale entries and counts the remaining players
func (s *PresenceService) CountOnline(ctx context.Context) (int64, error) {
	return s.store.PruneAndCountOnline(ctx, time.Now(), s.window)
}

// ClearCurrentGame detaches a user's in-progress game reference
func (s *PresenceService) ClearCurrentGame(ctx context.Context, userID int64) error {
	return s.store.ClearCurrentGame(ctx, userID)
}

// Remove deletes a user's presence entry, used on logout
func (s *PresenceService) Remove(ctx context.Context, userID int64) error {
	if err := s.store.RemovePresence(ctx, userID); err != nil {
		return err
	}
	s.broadcastCount(ctx)
	return nil
}

func (s *PresenceService) broadcastCount(ctx context.Context) {
	if s.hub == nil {
		return
	}
	count, err := s.store.PruneAndCountOnline(ctx, time.Now(), s.window)
	if err != nil {
		s.logger.Warn("failed to count online players for broadcast", "error", err)
		return
	}
	s.hub.BroadcastOnlineCount(count)
}

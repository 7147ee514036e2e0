package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/postgres"
	"github.com/snake-server/internal/redis"
)

// SyncWorker rebuilds the Redis score mirror from PostgreSQL on a timer.
// PostgreSQL is the authoritative store; the mirror only feeds realtime
// broadcasts and stats, so a crashed Redis can be repopulated at any time.
type SyncWorker struct {
	ledger   *redis.Ledger
	postgres *postgres.Repository
	config   *config.SyncConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(
	ledger *redis.Ledger,
	postgres *postgres.Repository,
	cfg *config.SyncConfig,
	logger *slog.Logger,
) *SyncWorker {
	return &SyncWorker{
		ledger:   ledger,
		postgres: postgres,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncOnce(ctx)
		}
	}
}

func (w *SyncWorker) syncOnce(ctx context.Context) {
	startTime := time.Now()

	if err := w.SyncFromDatabase(ctx); err != nil {
		w.logger.Error("sync cycle failed", "error", err)
		return
	}

	w.logger.Info("sync cycle completed", "duration", time.Since(startTime))
}

// SyncFromDatabase rebuilds the Redis mirror from the high_scores table.
// Used at startup and on every sync tick.
func (w *SyncWorker) SyncFromDatabase(ctx context.Context) error {
	scores, err := w.postgres.AllHighScores(ctx)
	if err != nil {
		return err
	}

	// Dropping the set first clears entries with no database row left
	if err := w.ledger.Reset(ctx); err != nil {
		return err
	}

	if len(scores) == 0 {
		w.logger.Debug("no scores to mirror")
		return nil
	}

	// Push in batches to keep pipeline sizes bounded
	batchSize := w.config.BatchSize
	if batchSize == 0 {
		batchSize = 1000
	}

	batch := make(map[int64]int64, batchSize)
	for userID, score := range scores {
		batch[userID] = score

		if len(batch) >= batchSize {
			if err := w.ledger.BatchSet(ctx, batch); err != nil {
				return err
			}
			batch = make(map[int64]int64, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := w.ledger.BatchSet(ctx, batch); err != nil {
			return err
		}
	}

	w.logger.Debug("mirrored high scores to redis", "count", len(scores))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncOnce(ctx)
}

package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/domain"
)

// ledgerKey is the sorted set mirroring the best-score ledger for
// realtime reads. PostgreSQL stays authoritative; the mirror is rebuilt
// by the sync worker.
const ledgerKey = "leaderboard:best:realtime"

// Ledger provides Redis-based realtime leaderboard operations
type Ledger struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLedger creates a new Redis ledger mirror
func NewLedger(cfg *config.RedisConfig, logger *slog.Logger) (*Ledger, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Ledger{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (l *Ledger) Close() error {
	return l.client.Close()
}

// Client returns the underlying Redis client
func (l *Ledger) Client() *redis.Client {
	return l.client
}

func member(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// SetScoreIfHigher records a user's score in the mirror only when it
// beats the stored value, matching the ledger's keep-the-maximum rule.
// Returns whether the mirror changed.
func (l *Ledger) SetScoreIfHigher(ctx context.Context, userID, score int64) (bool, error) {
	current, err := l.client.ZScore(ctx, ledgerKey, member(userID)).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("getting current score: %w", err)
	}

	if err != redis.Nil && !domain.BeatsRecord(score, int64(current)) {
		return false, nil
	}

	err = l.client.ZAdd(ctx, ledgerKey, redis.Z{
		Score:  float64(score),
		Member: member(userID),
	}).Err()
	if err != nil {
		return false, fmt.Errorf("setting score: %w", err)
	}
	return true, nil
}

// Rank returns a user's 1-indexed position in the mirror
func (l *Ledger) Rank(ctx context.Context, userID int64) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, ledgerKey, member(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, domain.ErrUserNotFound
		}
		return 0, fmt.Errorf("getting rank: %w", err)
	}
	return rank + 1, nil
}

// Count returns the number of mirrored ledger rows
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	count, err := l.client.ZCard(ctx, ledgerKey).Result()
	if err != nil {
		return 0, fmt.Errorf("getting count: %w", err)
	}
	return count, nil
}

// BatchSet writes multiple scores using pipelining, for mirror rebuilds
func (l *Ledger) BatchSet(ctx context.Context, scores map[int64]int64) error {
	if len(scores) == 0 {
		return nil
	}

	pipe := l.client.Pipeline()
	for userID, score := range scores {
		pipe.ZAdd(ctx, ledgerKey, redis.Z{
			Score:  float64(score),
			Member: member(userID),
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("batch setting scores: %w", err)
	}
	return nil
}

// Reset clears the mirror
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.client.Del(ctx, ledgerKey).Err(); err != nil {
		return fmt.Errorf("resetting ledger: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snake-server/internal/domain"
)

// UpsertHighScore offers a score to the ledger. The first submission for
// a user always creates the row; later submissions overwrite score and
// timestamp only when strictly greater. The conditional update is a
// single atomic statement, so concurrent submitters cannot lower the
// stored value or refresh the timestamp on a tie.
func (r *Repository) UpsertHighScore(ctx context.Context, userID, score int64, achievedAt time.Time) error {
	query := `
		INSERT INTO high_scores (user_id, score, achieved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET score = EXCLUDED.score, achieved_at = EXCLUDED.achieved_at
		WHERE high_scores.score < EXCLUDED.score
	`
	_, err := r.pool.Exec(ctx, query, userID, score, achievedAt)
	if err != nil {
		return fmt.Errorf("upserting high score: %w", err)
	}
	return nil
}

// GetHighScore retrieves a user's ledger row
func (r *Repository) GetHighScore(ctx context.Context, userID int64) (*domain.HighScore, error) {
	query := `
		SELECT h.id, h.user_id, u.username, h.score, h.achieved_at
		FROM high_scores h
		JOIN users u ON u.id = h.user_id
		WHERE h.user_id = $1
	`
	var hs domain.HighScore
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&hs.ID, &hs.UserID, &hs.Username, &hs.Score, &hs.AchievedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting high score: %w", err)
	}
	return &hs, nil
}

// TopHighScores returns the n best distinct-user scores, ordered by score
// descending with ties broken by most recent achievement
func (r *Repository) TopHighScores(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	query := `
		SELECT h.user_id, u.username, h.score, h.achieved_at, u.profile_photo_url
		FROM high_scores h
		JOIN users u ON u.id = h.user_id
		ORDER BY h.score DESC, h.achieved_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("getting top high scores: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	rank := int64(0)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Score, &e.AchievedAt, &e.ProfilePhotoURL); err != nil {
			return nil, fmt.Errorf("scanning leaderboard entry: %w", err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AllHighScores returns every ledger row keyed by user id, for rebuilding
// the realtime mirror
func (r *Repository) AllHighScores(ctx context.Context) (map[int64]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id, score FROM high_scores`)
	if err != nil {
		return nil, fmt.Errorf("getting all high scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[int64]int64)
	for rows.Next() {
		var userID, score int64
		if err := rows.Scan(&userID, &score); err != nil {
			return nil, fmt.Errorf("scanning score: %w", err)
		}
		scores[userID] = score
	}
	return scores, rows.Err()
}

// HighScoreCount returns the number of ledger rows
func (r *Repository) HighScoreCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM high_scores`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting high scores: %w", err)
	}
	return count, nil
}

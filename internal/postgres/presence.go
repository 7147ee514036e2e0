package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/snake-server/internal/domain"
)

// TouchPresence upserts a user's presence entry with a fresh heartbeat.
// When gameID is set it is attached only if that session belongs to the
// user; an unowned id leaves the current reference untouched.
func (r *Repository) TouchPresence(ctx context.Context, userID int64, now time.Time, gameID *int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO online_players (user_id, last_ping)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET last_ping = $2
	`, userID, now)
	if err != nil {
		return fmt.Errorf("touching presence: %w", err)
	}

	if gameID != nil {
		_, err = r.pool.Exec(ctx, `
			UPDATE online_players
			SET current_game_id = $2
			WHERE user_id = $1
			  AND EXISTS (SELECT 1 FROM game_sessions WHERE id = $2 AND user_id = $1)
		`, userID, *gameID)
		if err != nil {
			return fmt.Errorf("attaching current game: %w", err)
		}
	}
	return nil
}

// PruneAndListOnline deletes stale presence entries and returns the
// survivors in one transaction, ordered by username ascending. Each entry
// is annotated with its current game only while that session is still
// active. The cutoff is inclusive: last_ping at exactly the window age is
// pruned.
func (r *Repository) PruneAndListOnline(ctx context.Context, now time.Time, window time.Duration) ([]domain.OnlinePlayer, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cutoff := now.Add(-window)
	if _, err := tx.Exec(ctx, `DELETE FROM online_players WHERE last_ping <= $1`, cutoff); err != nil {
		return nil, fmt.Errorf("pruning stale players: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT o.user_id, u.username, u.best_score, u.total_games_played, o.last_ping,
		       g.id, g.score
		FROM online_players o
		JOIN users u ON u.id = o.user_id
		LEFT JOIN game_sessions g ON g.id = o.current_game_id AND g.is_active
		ORDER BY u.username ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing online players: %w", err)
	}
	defer rows.Close()

	var players []domain.OnlinePlayer
	for rows.Next() {
		var p domain.OnlinePlayer
		var gameID, gameScore *int64
		err := rows.Scan(&p.UserID, &p.Username, &p.BestScore, &p.TotalGames, &p.LastPing, &gameID, &gameScore)
		if err != nil {
			return nil, fmt.Errorf("scanning online player: %w", err)
		}
		if gameID != nil {
			p.CurrentGameID = gameID
			p.CurrentGame = &domain.CurrentGame{ID: *gameID, Score: *gameScore}
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return players, nil
}

// PruneAndCountOnline deletes stale presence entries and counts the
// survivors, with the same eviction semantics as PruneAndListOnline
func (r *Repository) PruneAndCountOnline(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cutoff := now.Add(-window)
	if _, err := tx.Exec(ctx, `DELETE FROM online_players WHERE last_ping <= $1`, cutoff); err != nil {
		return 0, fmt.Errorf("pruning stale players: %w", err)
	}

	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM online_players`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting online players: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return count, nil
}

// ClearCurrentGame detaches the current-game reference when a session
// ends
func (r *Repository) ClearCurrentGame(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE online_players SET current_game_id = NULL WHERE user_id = $1`, userID,
	)
	if err != nil {
		return fmt.Errorf("clearing current game: %w", err)
	}
	return nil
}

// RemovePresence deletes a user's presence entry, used on logout
func (r *Repository) RemovePresence(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM online_players WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("removing presence: %w", err)
	}
	return nil
}

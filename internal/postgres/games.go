package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snake-server/internal/domain"
)

func scanGame(row pgx.Row) (*domain.GameSession, error) {
	var g domain.GameSession
	var gameData []byte
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Score,
		&gameData,
		&g.IsActive,
		&g.CreatedAt,
		&g.UpdatedAt,
		&g.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("scanning game session: %w", err)
	}
	if err := json.Unmarshal(gameData, &g.GameData); err != nil {
		return nil, fmt.Errorf("unmarshaling game data: %w", err)
	}
	return &g, nil
}

// CreateGame starts a new session for a user. Any prior active session is
// deactivated in the same transaction, so at most one active session per
// user survives, and the presence entry is pointed at the new game.
func (r *Repository) CreateGame(ctx context.Context, userID int64, state domain.GameState) (*domain.GameSession, error) {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("marshaling game data: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Forcible deactivation rather than a uniqueness constraint: the
	// history of inactive sessions is retained.
	_, err = tx.Exec(ctx,
		`UPDATE game_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivating prior sessions: %w", err)
	}

	game, err := scanGame(tx.QueryRow(ctx, `
		INSERT INTO game_sessions (user_id, score, game_data)
		VALUES ($1, 0, $2)
		RETURNING id, user_id, score, game_data, is_active, created_at, updated_at, ended_at
	`, userID, stateJSON))
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO online_players (user_id, last_ping, current_game_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET last_ping = $2, current_game_id = $3
	`, userID, time.Now(), game.ID)
	if err != nil {
		return nil, fmt.Errorf("attaching current game: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return game, nil
}

// GetGame retrieves a session owned by the given user
func (r *Repository) GetGame(ctx context.Context, gameID, userID int64) (*domain.GameSession, error) {
	query := `
		SELECT id, user_id, score, game_data, is_active, created_at, updated_at, ended_at
		FROM game_sessions
		WHERE id = $1 AND user_id = $2
	`
	return scanGame(r.pool.QueryRow(ctx, query, gameID, userID))
}

// UpdateGame overwrites state and score on an active session. Returns
// ErrGameNotActive if the session has already ended.
func (r *Repository) UpdateGame(ctx context.Context, gameID, userID int64, state domain.GameState, score int64) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling game data: %w", err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE game_sessions
		SET game_data = $3, score = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2 AND is_active
	`, gameID, userID, stateJSON, score, time.Now())
	if err != nil {
		return fmt.Errorf("updating game: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Distinguish a missing session from an ended one
		if _, err := r.GetGame(ctx, gameID, userID); err != nil {
			return err
		}
		return domain.ErrGameNotActive
	}
	return nil
}

// EndGame transitions a session to ended exactly once. The is_active
// guard makes a second end a reported conflict instead of re-applying
// side effects.
func (r *Repository) EndGame(ctx context.Context, gameID, userID int64, now time.Time) (*domain.GameSession, error) {
	game, err := scanGame(r.pool.QueryRow(ctx, `
		UPDATE game_sessions
		SET is_active = FALSE, ended_at = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND is_active
		RETURNING id, user_id, score, game_data, is_active, created_at, updated_at, ended_at
	`, gameID, userID, now))
	if err == nil {
		return game, nil
	}
	if errors.Is(err, domain.ErrGameNotFound) {
		// Either absent or already ended
		if _, getErr := r.GetGame(ctx, gameID, userID); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrGameNotActive
	}
	return nil, err
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snake-server/internal/domain"
)

// CreateToken stores a bearer token for a user
func (r *Repository) CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) (*domain.AuthToken, error) {
	query := `
		INSERT INTO auth_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING token, user_id, created_at, expires_at
	`
	var t domain.AuthToken
	err := r.pool.QueryRow(ctx, query, token, userID, expiresAt).Scan(
		&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}
	return &t, nil
}

// GetToken looks up a bearer token
func (r *Repository) GetToken(ctx context.Context, token string) (*domain.AuthToken, error) {
	query := `SELECT token, user_id, created_at, expires_at FROM auth_tokens WHERE token = $1`
	var t domain.AuthToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return &t, nil
}

// DeleteToken revokes a single token
func (r *Repository) DeleteToken(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("deleting token: %w", err)
	}
	return nil
}

// DeleteUserTokens revokes every token a user holds
func (r *Repository) DeleteUserTokens(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deleting user tokens: %w", err)
	}
	return nil
}

// DeleteExpiredTokens removes tokens past their expiry
func (r *Repository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/snake-server/internal/domain"
)

const userColumns = `id, username, email, password_hash, COALESCE(google_id, ''),
	is_online, last_activity, total_games_played, best_score,
	profile_photo_url, bio, favorite_score, location, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.GoogleID,
		&u.IsOnline,
		&u.LastActivity,
		&u.TotalGamesPlayed,
		&u.BestScore,
		&u.ProfilePhotoURL,
		&u.Bio,
		&u.FavoriteScore,
		&u.Location,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a new user account
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, username, email, passwordHash))
}

// GetUserByID retrieves a user by primary key
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserByUsername retrieves a user by username, case-insensitively
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByGoogleID retrieves a user by linked Google subject id
func (r *Repository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, googleID))
}

// LinkGoogleID attaches a Google subject id to an existing account
func (r *Repository) LinkGoogleID(ctx context.Context, userID int64, googleID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET google_id = $2 WHERE id = $1`, userID, googleID)
	if err != nil {
		return fmt.Errorf("linking google id: %w", err)
	}
	return nil
}

// UsernameExists checks username availability, case-insensitively
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username existence: %w", err)
	}
	return exists, nil
}

// EmailExists checks email availability, case-insensitively
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}
	return exists, nil
}

// MarkOnline sets the coarse profile-display liveness flag
func (r *Repository) MarkOnline(ctx context.Context, userID int64, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET is_online = TRUE, last_activity = $2 WHERE id = $1`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("marking user online: %w", err)
	}
	return nil
}

// MarkOffline clears the coarse liveness flag
func (r *Repository) MarkOffline(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_online = FALSE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("marking user offline: %w", err)
	}
	return nil
}

// UpdateProfile applies a partial profile update
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error) {
	query := `
		UPDATE users SET
			bio = COALESCE($2, bio),
			favorite_score = COALESCE($3, favorite_score),
			location = COALESCE($4, location)
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, userID, update.Bio, update.FavoriteScore, update.Location))
}

// SetProfilePhotoURL stores the location of a fetched profile picture
func (r *Repository) SetProfilePhotoURL(ctx context.Context, userID int64, url string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET profile_photo_url = $2 WHERE id = $1`, userID, url)
	if err != nil {
		return fmt.Errorf("setting profile photo: %w", err)
	}
	return nil
}

// RecordGameEnd increments the user's play counter and raises best_score
// when exceeded, as a single atomic statement
func (r *Repository) RecordGameEnd(ctx context.Context, userID, finalScore int64) error {
	query := `
		UPDATE users SET
			total_games_played = total_games_played + 1,
			best_score = GREATEST(best_score, $2)
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, userID, finalScore)
	if err != nil {
		return fmt.Errorf("recording game end: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListUsers returns all users ordered for profile browsing
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY best_score DESC, total_games_played DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

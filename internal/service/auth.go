package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/snake-server/internal/config"
	"github.com/snake-server/internal/domain"
	"github.com/snake-server/internal/security"
	"github.com/snake-server/internal/validation"
)

// AuthService provides account, token and profile operations
type AuthService struct {
	users    UserStore
	tokens   TokenStore
	presence *PresenceService
	google   GoogleVerifier
	cfg      *config.AuthConfig
	display  time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	users UserStore,
	tokens TokenStore,
	presence *PresenceService,
	google GoogleVerifier,
	cfg *config.AuthConfig,
	displayWindow time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		presence: presence,
		google:   google,
		cfg:      cfg,
		display:  displayWindow,
		logger:   logger,
	}
}

// Register creates a new account and issues a bearer token
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, *domain.AuthToken, error) {
	if err := validation.ValidateRegistration(req); err != nil {
		return nil, nil, err
	}

	taken, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return nil, nil, domain.ErrUsernameTaken
	}

	taken, err = s.users.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return nil, nil, domain.ErrEmailTaken
	}

	hash, err := security.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, req.Username, req.Email, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("creating user: %w", err)
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Login authenticates credentials, issues a token and brings the user
// online
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, *domain.AuthToken, error) {
	if req.Username == "" || req.Password == "" {
		return nil, nil, domain.NewValidationError("username", "must include username and password")
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	if !security.CheckPassword(req.Password, user.PasswordHash) {
		return nil, nil, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	// Login counts as a heartbeat
	if err := s.presence.Heartbeat(ctx, user.ID, nil); err != nil {
		s.logger.Warn("failed to record login presence", "user_id", user.ID, "error", err)
	}
	user.IsOnline = true

	return user, token, nil
}

// Logout takes the user offline and revokes every token they hold, so
// signing out ends the account's sessions on all devices
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.users.MarkOffline(ctx, userID); err != nil {
		return fmt.Errorf("marking offline: %w", err)
	}
	if err := s.presence.Remove(ctx, userID); err != nil {
		s.logger.Warn("failed to remove presence on logout", "user_id", userID, "error", err)
	}
	if err := s.tokens.DeleteUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("revoking tokens: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	t, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if t.Expired(time.Now()) {
		_ = s.tokens.DeleteToken(ctx, token)
		return nil, domain.ErrTokenInvalid
	}
	user, err := s.users.GetUserByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

// GetProfile returns a user with the display liveness notion applied to
// the is_online field (flag or recent activity, looser than the
// presence tracker's prune rule)
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.IsOnline = user.OnlineForDisplay(time.Now(), s.display)
	return user, nil
}

// UpdateProfile applies a partial update to the caller's profile
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, update domain.ProfileUpdate) (*domain.User, error) {
	if err := validation.ValidateProfileUpdate(update); err != nil {
		return nil, err
	}
	return s.users.UpdateProfile(ctx, userID, update)
}

// ListUsers returns all users for profile browsing
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range users {
		users[i].IsOnline = users[i].OnlineForDisplay(now, s.display)
	}
	return users, nil
}

// GoogleLogin exchanges a Google ID token for a local account and bearer
// token, creating the account on first sight
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*domain.User, *domain.AuthToken, error) {
	if idToken == "" {
		return nil, nil, domain.NewValidationError("token", "google token is required")
	}
	if !s.google.Configured() {
		return nil, nil, fmt.Errorf("google oauth not configured: %w", domain.ErrInternalError)
	}

	claims, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	// Best effort: a failed picture check never fails the sign-in
	if claims.PictureURL != "" {
		if photoURL, err := s.google.ResolveProfilePicture(ctx, claims.PictureURL); err != nil {
			s.logger.Warn("failed to resolve google profile picture", "user_id", user.ID, "error", err)
		} else if err := s.users.SetProfilePhotoURL(ctx, user.ID, photoURL); err != nil {
			s.logger.Warn("failed to store profile picture url", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.presence.Heartbeat(ctx, user.ID, nil); err != nil {
		s.logger.Warn("failed to record login presence", "user_id", user.ID, "error", err)
	}
	user.IsOnline = true

	return user, token, nil
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, claims *domain.GoogleClaims) (*domain.User, error) {
	user, err := s.users.GetUserByGoogleID(ctx, claims.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up google user: %w", err)
	}

	// Fall back to email match and link the subject
	user, err = s.users.GetUserByEmail(ctx, claims.Email)
	if err == nil {
		if linkErr := s.users.LinkGoogleID(ctx, user.ID, claims.Subject); linkErr != nil {
			return nil, fmt.Errorf("linking google id: %w", linkErr)
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("looking up user by email: %w", err)
	}

	// First sight: create an account with a de-duplicated username
	// derived from the email local part
	username, err := s.availableUsername(ctx, domain.UsernameFromEmail(claims.Email))
	if err != nil {
		return nil, err
	}

	// Google accounts get an unusable random password
	hash, err := security.HashPassword(security.GenerateToken(), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing placeholder password: %w", err)
	}

	user, err = s.users.CreateUser(ctx, username, claims.Email, hash)
	if err != nil {
		return nil, fmt.Errorf("creating google user: %w", err)
	}
	if err := s.users.LinkGoogleID(ctx, user.ID, claims.Subject); err != nil {
		return nil, fmt.Errorf("linking google id: %w", err)
	}
	s.logger.Info("created user from google sign-in", "user_id", user.ID, "username", username)
	return user, nil
}

func (s *AuthService) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for counter := 1; ; counter++ {
		taken, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(counter)
	}
}

func (s *AuthService) issueToken(ctx context.Context, userID int64) (*domain.AuthToken, error) {
	token, err := s.tokens.CreateToken(ctx, security.GenerateToken(), userID, time.Now().Add(s.cfg.TokenTTL))
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// CleanupExpiredTokens removes tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) error {
	n, err := s.tokens.DeleteExpiredTokens(ctx, time.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("cleaned up expired tokens", "count", n)
	}
	return nil
}

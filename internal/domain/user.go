package domain

import (
	"strings"
	"time"
)

// User represents a registered player account
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email,omitempty"`
	PasswordHash     string    `json:"-"`
	GoogleID         string    `json:"-"`
	IsOnline         bool      `json:"is_online"`
	LastActivity     time.Time `json:"last_activity"`
	TotalGamesPlayed int       `json:"total_games_played"`
	BestScore        int64     `json:"best_score"`
	ProfilePhotoURL  string    `json:"profile_photo_url,omitempty"`
	Bio              string    `json:"bio,omitempty"`
	FavoriteScore    *int64    `json:"favorite_score,omitempty"`
	Location         string    `json:"location,omitempty"`
	CreatedAt        time.Time `json:"date_joined"`
}

// OnlineForDisplay reports the loose liveness notion shown on profiles:
// the explicit flag, or any activity inside the display window. This is
// intentionally weaker than the presence tracker's prune rule and the
// two can disagree.
func (u *User) OnlineForDisplay(now time.Time, window time.Duration) bool {
	return u.IsOnline || now.Sub(u.LastActivity) < window
}

// UsernameFromEmail derives a registration username from the local part
// of an email address
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// AuthToken is an opaque bearer token issued at registration or login
type AuthToken struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"-"`
	CreatedAt time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the token is past its expiry
func (t *AuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// LoginRequest is the payload for credential login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google-issued ID token. Both field names
// are accepted for client compatibility.
type GoogleLoginRequest struct {
	Token      string `json:"token"`
	Credential string `json:"credential"`
}

// IDToken returns whichever token field the client populated
func (r *GoogleLoginRequest) IDToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Credential
}

// GoogleClaims is the verified identity returned by the OAuth verifier
type GoogleClaims struct {
	Subject    string
	Email      string
	Name       string
	PictureURL string
}

// ProfileUpdate is the mutable subset of a user profile
type ProfileUpdate struct {
	Bio           *string `json:"bio,omitempty"`
	FavoriteScore *int64  `json:"favorite_score,omitempty"`
	Location      *string `json:"location,omitempty"`
}

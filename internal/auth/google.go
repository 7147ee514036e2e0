package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/snake-server/internal/domain"
)

// GoogleVerifier validates Google-issued ID tokens for a configured
// OAuth client
type GoogleVerifier struct {
	clientID   string
	httpClient *http.Client
}

// NewGoogleVerifier creates a verifier for the given OAuth client id
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:   clientID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a client id was provided
func (v *GoogleVerifier) Configured() bool {
	return v.clientID != ""
}

// Verify validates an ID token and extracts the identity claims
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*domain.GoogleClaims, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGoogleTokenInvalid, err)
	}

	if iss, _ := payload.Claims["iss"].(string); iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: wrong issuer", domain.ErrGoogleTokenInvalid)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: missing email claim", domain.ErrGoogleTokenInvalid)
	}
	name, _ := payload.Claims["name"].(string)
	picture, _ := payload.Claims["picture"].(string)

	return &domain.GoogleClaims{
		Subject:    payload.Subject,
		Email:      email,
		Name:       name,
		PictureURL: picture,
	}, nil
}

// ResolveProfilePicture returns the URL of a reachable rendition of a
// Google profile picture, preferring the 400px one. Only the headers
// are requested; the image itself stays hosted by Google. The caller
// treats any error as best-effort: a failed check never fails the
// sign-in flow.
func (v *GoogleVerifier) ResolveProfilePicture(ctx context.Context, pictureURL string) (string, error) {
	if pictureURL == "" {
		return "", fmt.Errorf("no picture url")
	}

	highRes := highResPictureURL(pictureURL)
	if err := v.check(ctx, highRes); err == nil {
		return highRes, nil
	}
	// Fall back to the original size
	if err := v.check(ctx, pictureURL); err != nil {
		return "", err
	}
	return pictureURL, nil
}

func (v *GoogleVerifier) check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("checking picture: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checking picture: status %d", resp.StatusCode)
	}
	return nil
}

// highResPictureURL rewrites a Google photo URL to request the 400px
// rendition instead of the default 96px one
func highResPictureURL(url string) string {
	if strings.Contains(url, "s96-c") {
		return strings.ReplaceAll(url, "s96-c", "s400-c")
	}
	if strings.Contains(url, "=s") {
		return url
	}
	if strings.Contains(url, "?") {
		return url + "&sz=400"
	}
	return url + "?sz=400"
}

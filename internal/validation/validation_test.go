package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/snake-server/internal/domain"
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	return ve.Field
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"simple", "alice", false},
		{"with allowed symbols", "alice.b_c@d+e-f", false},
		{"digits", "player123", false},
		{"empty", "", true},
		{"space", "alice smith", true},
		{"too long", strings.Repeat("a", 151), true},
		{"max length", strings.Repeat("a", 150), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"subdomain", "a@mail.example.co.uk", false},
		{"empty", "", true},
		{"no at", "alice.example.com", true},
		{"no domain dot", "alice@example", true},
		{"spaces", "alice @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	valid := domain.RegisterRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "correcthorse",
		Password2: "correcthorse",
	}

	if err := ValidateRegistration(valid); err != nil {
		t.Fatalf("valid registration rejected: %v", err)
	}

	tests := []struct {
		name      string
		mutate    func(*domain.RegisterRequest)
		wantField string
	}{
		{"short password", func(r *domain.RegisterRequest) { r.Password = "short"; r.Password2 = "short" }, "password"},
		{"mismatched passwords", func(r *domain.RegisterRequest) { r.Password2 = "different" }, "password2"},
		{"bad username", func(r *domain.RegisterRequest) { r.Username = "no spaces allowed" }, "username"},
		{"bad email", func(r *domain.RegisterRequest) { r.Email = "nope" }, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := ValidateRegistration(req)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := fieldOf(t, err); got != tt.wantField {
				t.Errorf("error field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestValidateGameState(t *testing.T) {
	const grid = 20

	base := domain.NewInitialState()

	tests := []struct {
		name    string
		mutate  func(*domain.GameState)
		wantErr bool
	}{
		{"initial state", func(s *domain.GameState) {}, false},
		{"empty snake", func(s *domain.GameState) { s.Snake = nil }, true},
		{"segment out of bounds", func(s *domain.GameState) { s.Snake = []domain.Cell{{20, 5}} }, true},
		{"negative segment", func(s *domain.GameState) { s.Snake = []domain.Cell{{-1, 5}} }, true},
		{"food out of bounds", func(s *domain.GameState) { s.Food = domain.Cell{5, 20} }, true},
		{"bad direction", func(s *domain.GameState) { s.Direction = "sideways" }, true},
		{"negative score", func(s *domain.GameState) { s.Score = -1 }, true},
		{"self collision allowed", func(s *domain.GameState) {
			s.Snake = []domain.Cell{{3, 3}, {3, 4}, {3, 3}}
			s.GameOver = true
		}, false},
		{"corner cells", func(s *domain.GameState) { s.Snake = []domain.Cell{{0, 0}, {19, 19}} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := base
			tt.mutate(&state)
			err := ValidateGameState(state, grid)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGameState() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProfileUpdate(t *testing.T) {
	longBio := strings.Repeat("b", 501)
	okBio := strings.Repeat("b", 500)
	longLocation := strings.Repeat("l", 101)

	tests := []struct {
		name    string
		update  domain.ProfileUpdate
		wantErr bool
	}{
		{"empty update", domain.ProfileUpdate{}, false},
		{"bio at limit", domain.ProfileUpdate{Bio: &okBio}, false},
		{"bio too long", domain.ProfileUpdate{Bio: &longBio}, true},
		{"location too long", domain.ProfileUpdate{Location: &longLocation}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfileUpdate(tt.update)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProfileUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

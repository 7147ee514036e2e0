package validation

import (
	"regexp"
	"unicode/utf8"

	"github.com/snake-server/internal/domain"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]{1,150}$`)
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks username shape
func ValidateUsername(username string) error {
	if username == "" {
		return domain.NewValidationError("username", "this field is required")
	}
	if !usernameRegex.MatchString(username) {
		return domain.NewValidationError("username", "may contain only letters, digits and @/./+/-/_ characters, at most 150 of them")
	}
	return nil
}

// ValidateEmail checks email shape
func ValidateEmail(email string) error {
	if email == "" {
		return domain.NewValidationError("email", "this field is required")
	}
	if len(email) > 254 || !emailRegex.MatchString(email) {
		return domain.NewValidationError("email", "enter a valid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum password policy
func ValidatePassword(password string) error {
	if password == "" {
		return domain.NewValidationError("password", "this field is required")
	}
	if utf8.RuneCountInString(password) < 8 {
		return domain.NewValidationError("password", "must be at least 8 characters")
	}
	return nil
}

// ValidateRegistration checks a full registration payload
func ValidateRegistration(req domain.RegisterRequest) error {
	if err := ValidateUsername(req.Username); err != nil {
		return err
	}
	if err := ValidateEmail(req.Email); err != nil {
		return err
	}
	if err := ValidatePassword(req.Password); err != nil {
		return err
	}
	if req.Password != req.Password2 {
		return domain.NewValidationError("password2", "passwords don't match")
	}
	return nil
}

// ValidateGameState checks a client-reported state against the board
// bounds. A snake needs at least one segment; overlapping segments are
// allowed since a self-collision is exactly how games end.
func ValidateGameState(state domain.GameState, gridSize int) error {
	if len(state.Snake) == 0 {
		return domain.NewValidationError("game_data.snake", "must have at least one segment")
	}
	for _, cell := range state.Snake {
		if !inBounds(cell, gridSize) {
			return domain.NewValidationError("game_data.snake", "segment out of bounds")
		}
	}
	if !inBounds(state.Food, gridSize) {
		return domain.NewValidationError("game_data.food", "out of bounds")
	}
	if !domain.ValidDirection(state.Direction) {
		return domain.NewValidationError("game_data.direction", "must be one of up, down, left, right")
	}
	if state.Score < 0 {
		return domain.NewValidationError("game_data.score", "must not be negative")
	}
	return nil
}

// ValidateProfileUpdate checks the mutable profile fields
func ValidateProfileUpdate(update domain.ProfileUpdate) error {
	if update.Bio != nil && utf8.RuneCountInString(*update.Bio) > 500 {
		return domain.NewValidationError("bio", "must be at most 500 characters")
	}
	if update.Location != nil && utf8.RuneCountInString(*update.Location) > 100 {
		return domain.NewValidationError("location", "must be at most 100 characters")
	}
	return nil
}

func inBounds(cell domain.Cell, gridSize int) bool {
	return cell[0] >= 0 && cell[0] < gridSize && cell[1] >= 0 && cell[1] < gridSize
}

package security

import "github.com/google/uuid"

// GenerateToken creates a new opaque bearer token
func GenerateToken() string {
	return uuid.New().String()
}

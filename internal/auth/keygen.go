// Package auth provides password hashing and API key utilities.
package auth

import (
	"errors"
	"regexp"

	"github.com/google/uuid"
)

// API keys are opaque bearer credentials. A fresh random UUID gives 122 bits
// of entropy and a stable, URL-safe format.
var keyFormatRegex = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ErrInvalidKeyFormat indicates the presented key cannot be a valid API key.
var ErrInvalidKeyFormat = errors.New("invalid API key format")

// GenerateAPIKey creates a fresh random API key.
// Keys are stored as-is in the credential store; lookup is by exact match
// on a unique column, so the store enforces the at-most-one-user invariant.
func GenerateAPIKey() string {
	return uuid.NewString()
}

// ValidateKeyFormat checks if the presented key matches the expected format.
// Used to reject obviously malformed keys before touching the store.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}

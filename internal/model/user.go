// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account in the credential store.
// The gateway never caches this record; every API key check is a live lookup.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never serialize
	APIKey       string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

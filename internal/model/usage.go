package model

import "time"

// Usage is an aggregate of billable activity for one user.
// Tokens are approximated by whitespace-separated word count; images
// are counted per uploaded file.
type Usage struct {
	UserID       string `json:"user_id"`
	PromptTokens int64  `json:"prompt_tokens"`
	Images       int64  `json:"images"`
}

// IsZero reports whether the usage carries nothing billable.
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.Images == 0
}

// UsageEvent is the durable per-request usage record.
type UsageEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PromptTokens int64     `json:"prompt_tokens"`
	Images       int64     `json:"images"`
	CreatedAt    time.Time `json:"created_at"`
}

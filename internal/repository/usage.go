package repository

import (
	"context"
	"fmt"

	"github.com/visiongate/visiongate/internal/model"
)

// RecordUsageEvent inserts a durable per-request usage record.
// The Redis counters are the fast read path; these rows are the audit trail.
func (r *Repository) RecordUsageEvent(ctx context.Context, event *model.UsageEvent) error {
	query := `
		INSERT INTO usage_events (id, user_id, prompt_tokens, images, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.PromptTokens,
		event.Images,
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record usage event: %w", err)
	}

	return nil
}

// GetUsageByUserID sums all usage events for a user.
func (r *Repository) GetUsageByUserID(ctx context.Context, userID string) (model.Usage, error) {
	query := `
		SELECT COALESCE(SUM(prompt_tokens), 0), COALESCE(SUM(images), 0)
		FROM usage_events
		WHERE user_id = $1
	`

	usage := model.Usage{UserID: userID}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&usage.PromptTokens,
		&usage.Images,
	)

	if err != nil {
		return model.Usage{}, fmt.Errorf("failed to get usage: %w", err)
	}

	return usage, nil
}

package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/visiongate/visiongate/internal/model"
)

const (
	// usageTokensPrefix is the Redis key prefix for per-user token counters.
	usageTokensPrefix = "usage:tokens:"
	// usageImagesPrefix is the Redis key prefix for per-user image counters.
	usageImagesPrefix = "usage:images:"
)

// AddUsage increments the per-user usage counters.
// INCRBY is atomic per key, so concurrent completions never undercount.
func (c *Cache) AddUsage(ctx context.Context, usage model.Usage) error {
	pipe := c.client.Pipeline()
	if usage.PromptTokens > 0 {
		pipe.IncrBy(ctx, usageTokensPrefix+usage.UserID, usage.PromptTokens)
	}
	if usage.Images > 0 {
		pipe.IncrBy(ctx, usageImagesPrefix+usage.UserID, usage.Images)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment usage counters: %w", err)
	}
	return nil
}

// GetUsage reads the per-user usage counters.
// Missing counters read as zero; callers that need the durable totals
// should fall back to the usage_events table.
func (c *Cache) GetUsage(ctx context.Context, userID string) (model.Usage, error) {
	usage := model.Usage{UserID: userID}

	tokens, err := c.getCounter(ctx, usageTokensPrefix+userID)
	if err != nil {
		return model.Usage{}, err
	}
	images, err := c.getCounter(ctx, usageImagesPrefix+userID)
	if err != nil {
		return model.Usage{}, err
	}

	usage.PromptTokens = tokens
	usage.Images = images
	return usage, nil
}

// ResetUsage clears the per-user counters, e.g. after a settled checkout.
func (c *Cache) ResetUsage(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, usageTokensPrefix+userID, usageImagesPrefix+userID).Err(); err != nil {
		return fmt.Errorf("reset usage counters: %w", err)
	}
	return nil
}

func (c *Cache) getCounter(ctx context.Context, key string) (int64, error) {
	value, err := c.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	return value, nil
}

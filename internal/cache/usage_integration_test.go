package cache_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/visiongate/visiongate/internal/cache"
	"github.com/visiongate/visiongate/internal/model"
	"github.com/visiongate/visiongate/internal/testutil"
)

func setupCache(t *testing.T) (*cache.Cache, context.Context) {
	t.Helper()

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := cache.New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
	})

	return c, ctx
}

func TestUsageCounters(t *testing.T) {
	c, ctx := setupCache(t)
	userID := uuid.NewString()

	// Unknown user reads as zero.
	usage, err := c.GetUsage(ctx, userID)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if !usage.IsZero() {
		t.Fatalf("expected zero usage, got %+v", usage)
	}

	increments := []model.Usage{
		{UserID: userID, PromptTokens: 3, Images: 1},
		{UserID: userID, PromptTokens: 7},
	}
	for _, inc := range increments {
		if err := c.AddUsage(ctx, inc); err != nil {
			t.Fatalf("add usage: %v", err)
		}
	}

	usage, err = c.GetUsage(ctx, userID)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage.PromptTokens != 10 {
		t.Errorf("prompt tokens = %d, want 10", usage.PromptTokens)
	}
	if usage.Images != 1 {
		t.Errorf("images = %d, want 1", usage.Images)
	}

	if err := c.ResetUsage(ctx, userID); err != nil {
		t.Fatalf("reset usage: %v", err)
	}
	usage, err = c.GetUsage(ctx, userID)
	if err != nil {
		t.Fatalf("get usage after reset: %v", err)
	}
	if !usage.IsZero() {
		t.Errorf("expected zero usage after reset, got %+v", usage)
	}
}

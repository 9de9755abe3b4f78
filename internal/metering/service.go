package metering

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/visiongate/visiongate/internal/model"
)

// Counter is the fast, lossy usage read/write path (Redis counters).
type Counter interface {
	AddUsage(ctx context.Context, usage model.Usage) error
	GetUsage(ctx context.Context, userID string) (model.Usage, error)
}

// Store is the durable usage trail (usage_events table).
type Store interface {
	RecordUsageEvent(ctx context.Context, event *model.UsageEvent) error
	GetUsageByUserID(ctx context.Context, userID string) (model.Usage, error)
}

// Service records billable activity and answers usage queries for checkout.
type Service struct {
	counter Counter
	store   Store
	pricing Pricing
}

// NewService creates a metering Service.
func NewService(counter Counter, store Store, pricing Pricing) *Service {
	return &Service{
		counter: counter,
		store:   store,
		pricing: pricing,
	}
}

// Record persists one request's usage: a durable event row plus the
// counter increments checkout reads from.
func (s *Service) Record(ctx context.Context, usage model.Usage) error {
	if usage.IsZero() {
		return nil
	}

	event := &model.UsageEvent{
		ID:           ulid.Make().String(),
		UserID:       usage.UserID,
		PromptTokens: usage.PromptTokens,
		Images:       usage.Images,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.RecordUsageEvent(ctx, event); err != nil {
		return fmt.Errorf("record usage event: %w", err)
	}

	if err := s.counter.AddUsage(ctx, usage); err != nil {
		// The durable row landed; a lost counter increment self-corrects on
		// the next fallback read.
		return fmt.Errorf("update usage counters: %w", err)
	}

	return nil
}

// UsageFor returns the accumulated usage for a user. Counters are the fast
// path; if they read empty the durable table is consulted, which covers
// counter loss after a Redis flush.
func (s *Service) UsageFor(ctx context.Context, userID string) (model.Usage, error) {
	usage, err := s.counter.GetUsage(ctx, userID)
	if err == nil && !usage.IsZero() {
		return usage, nil
	}

	stored, storeErr := s.store.GetUsageByUserID(ctx, userID)
	if storeErr != nil {
		if err != nil {
			return model.Usage{}, fmt.Errorf("usage counters unavailable (%v): %w", err, storeErr)
		}
		return model.Usage{}, storeErr
	}

	return stored, nil
}

// Cost returns the cost of the given usage under the configured pricing.
func (s *Service) Cost(usage model.Usage) int64 {
	return CalculateCost(usage, s.pricing)
}

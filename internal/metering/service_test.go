package metering

import (
	"context"
	"errors"
	"testing"

	"github.com/visiongate/visiongate/internal/model"
)

type fakeCounter struct {
	usage  map[string]model.Usage
	addErr error
	getErr error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{usage: make(map[string]model.Usage)}
}

func (f *fakeCounter) AddUsage(_ context.Context, usage model.Usage) error {
	if f.addErr != nil {
		return f.addErr
	}
	current := f.usage[usage.UserID]
	current.UserID = usage.UserID
	current.PromptTokens += usage.PromptTokens
	current.Images += usage.Images
	f.usage[usage.UserID] = current
	return nil
}

func (f *fakeCounter) GetUsage(_ context.Context, userID string) (model.Usage, error) {
	if f.getErr != nil {
		return model.Usage{}, f.getErr
	}
	usage := f.usage[userID]
	usage.UserID = userID
	return usage, nil
}

type fakeStore struct {
	events []*model.UsageEvent
	sums   map[string]model.Usage
}

func newFakeStore() *fakeStore {
	return &fakeStore{sums: make(map[string]model.Usage)}
}

func (f *fakeStore) RecordUsageEvent(_ context.Context, event *model.UsageEvent) error {
	f.events = append(f.events, event)
	sum := f.sums[event.UserID]
	sum.UserID = event.UserID
	sum.PromptTokens += event.PromptTokens
	sum.Images += event.Images
	f.sums[event.UserID] = sum
	return nil
}

func (f *fakeStore) GetUsageByUserID(_ context.Context, userID string) (model.Usage, error) {
	sum := f.sums[userID]
	sum.UserID = userID
	return sum, nil
}

func TestService_RecordAccumulates(t *testing.T) {
	t.Parallel()

	counter := newFakeCounter()
	store := newFakeStore()
	svc := NewService(counter, store, Pricing{PerTokenCents: 1, PerImageCents: 50})

	ctx := context.Background()
	if err := svc.Record(ctx, model.Usage{UserID: "u1", PromptTokens: 3, Images: 1}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := svc.Record(ctx, model.Usage{UserID: "u1", PromptTokens: 2}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	usage, err := svc.UsageFor(ctx, "u1")
	if err != nil {
		t.Fatalf("UsageFor failed: %v", err)
	}

	if usage.PromptTokens != 5 || usage.Images != 1 {
		t.Errorf("usage = %+v, want tokens=5 images=1", usage)
	}

	if len(store.events) != 2 {
		t.Errorf("expected 2 durable events, got %d", len(store.events))
	}
	for _, event := range store.events {
		if event.ID == "" {
			t.Error("usage event should carry a generated ID")
		}
	}
}

func TestService_RecordSkipsZeroUsage(t *testing.T) {
	t.Parallel()

	counter := newFakeCounter()
	store := newFakeStore()
	svc := NewService(counter, store, Pricing{})

	if err := svc.Record(context.Background(), model.Usage{UserID: "u1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if len(store.events) != 0 {
		t.Errorf("zero usage should not produce events, got %d", len(store.events))
	}
}

func TestService_UsageForFallsBackToStore(t *testing.T) {
	t.Parallel()

	counter := newFakeCounter()
	counter.getErr = errors.New("redis down")
	store := newFakeStore()
	store.sums["u1"] = model.Usage{UserID: "u1", PromptTokens: 7, Images: 2}

	svc := NewService(counter, store, Pricing{})

	usage, err := svc.UsageFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UsageFor should fall back to store, got error: %v", err)
	}

	if usage.PromptTokens != 7 || usage.Images != 2 {
		t.Errorf("usage = %+v, want store totals", usage)
	}
}

func TestService_UsageForFallsBackWhenCountersEmpty(t *testing.T) {
	t.Parallel()

	counter := newFakeCounter()
	store := newFakeStore()
	store.sums["u1"] = model.Usage{UserID: "u1", PromptTokens: 4}

	svc := NewService(counter, store, Pricing{})

	usage, err := svc.UsageFor(context.Background(), "u1")
	if err != nil {
		t.Fatalf("UsageFor failed: %v", err)
	}

	if usage.PromptTokens != 4 {
		t.Errorf("expected fallback to durable totals, got %+v", usage)
	}
}

func TestCalculateCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		usage   model.Usage
		pricing Pricing
		want    int64
	}{
		{"tokens only", model.Usage{PromptTokens: 10}, Pricing{PerTokenCents: 2}, 20},
		{"images only", model.Usage{Images: 3}, Pricing{PerImageCents: 50}, 150},
		{"mixed", model.Usage{PromptTokens: 10, Images: 2}, Pricing{PerTokenCents: 1, PerImageCents: 50}, 110},
		{"zero usage", model.Usage{}, Pricing{PerTokenCents: 1, PerImageCents: 50}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CalculateCost(tt.usage, tt.pricing); got != tt.want {
				t.Errorf("CalculateCost = %d, want %d", got, tt.want)
			}
		})
	}
}

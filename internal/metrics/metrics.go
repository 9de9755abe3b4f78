// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Completion outcome labels.
const (
	StatusOK             = "ok"
	StatusDecodeError    = "decode_error"
	StatusInferenceError = "inference_error"
)

// Recorder captures metric events for the gateway.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Completion pipeline metrics
	IncCompletion(status string)
	ObserveInferenceDuration(duration time.Duration)

	// Guard metrics
	IncAuthFailure()
	IncRateLimited()

	// Billing metrics
	IncCheckoutSession(status string) // status: "ok" or "error"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

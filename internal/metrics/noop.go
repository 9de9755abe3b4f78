package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCompletion is a no-op.
func (n *NoopRecorder) IncCompletion(status string) {}

// ObserveInferenceDuration is a no-op.
func (n *NoopRecorder) ObserveInferenceDuration(duration time.Duration) {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncCheckoutSession is a no-op.
func (n *NoopRecorder) IncCheckoutSession(status string) {}

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Completions              map[string]uint64
	InferenceDurationCount   uint64
	InferenceDurationTotalNs int64
	AuthFailures             uint64
	RateLimited              uint64
	CheckoutSessions         map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu               sync.Mutex
	completions      map[string]uint64
	checkoutSessions map[string]uint64

	inferenceDurationCount   uint64
	inferenceDurationTotalNs int64
	authFailures             uint64
	rateLimited              uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		completions:      make(map[string]uint64),
		checkoutSessions: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	completions := make(map[string]uint64, len(m.completions))
	for k, v := range m.completions {
		completions[k] = v
	}
	checkouts := make(map[string]uint64, len(m.checkoutSessions))
	for k, v := range m.checkoutSessions {
		checkouts[k] = v
	}

	return Snapshot{
		Completions:              completions,
		InferenceDurationCount:   atomic.LoadUint64(&m.inferenceDurationCount),
		InferenceDurationTotalNs: atomic.LoadInt64(&m.inferenceDurationTotalNs),
		AuthFailures:             atomic.LoadUint64(&m.authFailures),
		RateLimited:              atomic.LoadUint64(&m.rateLimited),
		CheckoutSessions:         checkouts,
	}
}

// IncCompletion increments the completion counter for a status.
func (m *InMemoryRecorder) IncCompletion(status string) {
	m.mu.Lock()
	m.completions[status]++
	m.mu.Unlock()
}

// ObserveInferenceDuration records inference duration.
func (m *InMemoryRecorder) ObserveInferenceDuration(duration time.Duration) {
	atomic.AddUint64(&m.inferenceDurationCount, 1)
	atomic.AddInt64(&m.inferenceDurationTotalNs, duration.Nanoseconds())
}

// IncAuthFailure increments the auth failure counter.
func (m *InMemoryRecorder) IncAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}

// IncRateLimited increments the rate limited counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncCheckoutSession increments the checkout session counter for a status.
func (m *InMemoryRecorder) IncCheckoutSession(status string) {
	m.mu.Lock()
	m.checkoutSessions[status]++
	m.mu.Unlock()
}

// Package ratelimit implements a process-local request limiter.
//
// State lives in memory and is not shared across horizontally scaled
// replicas; each instance enforces its own window. That is a scaling
// limitation, not a bug - anyone distributing the gateway across replicas
// should front it with a shared limiter instead.
package ratelimit

import (
	"sync"
	"time"
)

// Result describes the outcome of a limiter check.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// window tracks request counts for one key within the current fixed window.
type window struct {
	start time.Time
	count int
}

// Limiter allows at most Limit requests per key per fixed time window.
// Counters are guarded by a single mutex; the per-key increment is atomic
// with the allow decision, so concurrent bursts never undercount.
type Limiter struct {
	limit  int
	period time.Duration

	mu      sync.Mutex
	windows map[string]*window

	stop chan struct{}
	done chan struct{}
}

// New creates a Limiter allowing limit requests per period per key.
func New(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		limit:   limit,
		period:  period,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go l.janitor()

	return l
}

// Limit returns the configured number of requests per window.
func (l *Limiter) Limit() int {
	return l.limit
}

// Period returns the configured window length.
func (l *Limiter) Period() time.Duration {
	return l.period
}

// Allow records a request for key and reports whether it fits in the
// current window.
func (l *Limiter) Allow(key string) Result {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		w = &window{start: now}
		l.windows[key] = w
	}

	resetAt := w.start.Add(l.period)

	if w.count >= l.limit {
		return Result{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.limit - w.count,
		ResetAt:   resetAt,
	}
}

// Stop terminates the janitor goroutine and waits for it to exit.
func (l *Limiter) Stop() {
	close(l.stop)
	<-l.done
}

// janitor periodically drops windows that have expired, keeping the map
// bounded by the number of distinct clients seen per window.
func (l *Limiter) janitor() {
	defer close(l.done)

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, w := range l.windows {
				if now.Sub(w.start) >= l.period {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

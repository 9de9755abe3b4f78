package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLimiter_SixthRequestDenied(t *testing.T) {
	t.Parallel()

	l := New(5, time.Minute)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		result := l.Allow("10.0.0.1")
		if !result.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if result.Remaining != 5-(i+1) {
			t.Errorf("request %d: remaining = %d, want %d", i+1, result.Remaining, 5-(i+1))
		}
	}

	result := l.Allow("10.0.0.1")
	if result.Allowed {
		t.Error("6th request within the window should be denied")
	}
	if result.RetryAfter <= 0 {
		t.Errorf("denied result should carry a positive RetryAfter, got %v", result.RetryAfter)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := New(1, time.Minute)
	defer l.Stop()

	if !l.Allow("10.0.0.1").Allowed {
		t.Fatal("first request for first key should be allowed")
	}
	if !l.Allow("10.0.0.2").Allowed {
		t.Error("first request for second key should be allowed despite first key being exhausted")
	}
	if l.Allow("10.0.0.1").Allowed {
		t.Error("second request for exhausted key should be denied")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	t.Parallel()

	l := New(1, 20*time.Millisecond)
	defer l.Stop()

	if !l.Allow("k").Allowed {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("k").Allowed {
		t.Fatal("second request in window should be denied")
	}

	time.Sleep(30 * time.Millisecond)

	if !l.Allow("k").Allowed {
		t.Error("request after window expiry should be allowed")
	}
}

func TestLimiter_ConcurrentBurstNeverOvercounts(t *testing.T) {
	t.Parallel()

	const limit = 5
	const attempts = 50

	l := New(limit, time.Minute)
	defer l.Stop()

	var wg sync.WaitGroup
	allowed := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("burst").Allowed {
				allowed <- struct{}{}
			}
		}()
	}

	wg.Wait()
	close(allowed)

	count := 0
	for range allowed {
		count++
	}

	if count != limit {
		t.Errorf("expected exactly %d allowed requests under concurrent burst, got %d", limit, count)
	}
}

func TestLimiter_JanitorPrunesExpiredWindows(t *testing.T) {
	t.Parallel()

	l := New(5, 10*time.Millisecond)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		l.Allow(fmt.Sprintf("client-%d", i))
	}

	time.Sleep(50 * time.Millisecond)

	l.mu.Lock()
	size := len(l.windows)
	l.mu.Unlock()

	if size != 0 {
		t.Errorf("expected janitor to prune expired windows, %d remain", size)
	}
}

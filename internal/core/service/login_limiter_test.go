package service

import (
	"testing"
	"time"
)

func TestLoginLimiter_AllowsUpToLimit(t *testing.T) {
	limiter := NewLoginLimiter(5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "dr.smith")
		if !allowed {
			t.Fatalf("attempt %d unexpectedly denied", i+1)
		}
	}

	allowed, retryAfter := limiter.Allow("10.0.0.1", "dr.smith")
	if allowed {
		t.Fatalf("6th attempt must be denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}
}

func TestLoginLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLoginLimiter(2, 15*time.Minute)

	limiter.Allow("10.0.0.1", "dr.smith")
	limiter.Allow("10.0.0.1", "dr.smith")
	if allowed, _ := limiter.Allow("10.0.0.1", "dr.smith"); allowed {
		t.Fatalf("exhausted key still allowed")
	}

	// Same login, different IP.
	if allowed, _ := limiter.Allow("10.0.0.2", "dr.smith"); !allowed {
		t.Fatalf("different ip sharing a login was denied")
	}
	// Same IP, different login.
	if allowed, _ := limiter.Allow("10.0.0.1", "dr.jones"); !allowed {
		t.Fatalf("different login sharing an ip was denied")
	}
}

func TestLoginLimiter_Remaining(t *testing.T) {
	limiter := NewLoginLimiter(3, 15*time.Minute)

	if got := limiter.Remaining("10.0.0.1", "dr.smith"); got != 3 {
		t.Fatalf("fresh key: expected 3 remaining, got %d", got)
	}
	limiter.Allow("10.0.0.1", "dr.smith")
	if got := limiter.Remaining("10.0.0.1", "dr.smith"); got != 2 {
		t.Fatalf("after one attempt: expected 2 remaining, got %d", got)
	}
}

func TestLoginLimiter_Prune(t *testing.T) {
	limiter := NewLoginLimiter(5, time.Millisecond)

	limiter.Allow("10.0.0.1", "dr.smith")
	time.Sleep(5 * time.Millisecond)
	limiter.Prune()

	limiter.mu.Lock()
	remaining := len(limiter.limiters)
	limiter.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("expected pruned map, %d entries left", remaining)
	}
}

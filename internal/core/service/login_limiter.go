package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter applies a sliding-window rate limit to login attempts, keyed
// by (client IP, login identifier) so one noisy client cannot lock out a
// whole office behind the same NAT.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*loginLimiterEntry

	maxAttempts int
	window      time.Duration
}

type loginLimiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginLimiter{
		limiters:    make(map[string]*loginLimiterEntry),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// Allow records one attempt for the key and reports whether it is within
// the limit. When denied, retryAfter hints how long the client should wait
// before the next attempt can succeed.
func (l *LoginLimiter) Allow(ip, login string) (allowed bool, retryAfter time.Duration) {
	key := ip + "|" + login
	now := time.Now()

	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		// Burst of maxAttempts, refilling over the window: a full burst
		// spent at once takes the whole window to recover.
		entry = &loginLimiterEntry{
			lim: rate.NewLimiter(rate.Every(l.window/time.Duration(l.maxAttempts)), l.maxAttempts),
		}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	r := entry.lim.ReserveN(now, 1)
	if !r.OK() {
		return false, l.window
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Limit reports the configured attempt budget per key.
func (l *LoginLimiter) Limit() int {
	return l.maxAttempts
}

// Remaining reports how many attempts the key has left right now.
func (l *LoginLimiter) Remaining(ip, login string) int {
	l.mu.Lock()
	entry, ok := l.limiters[ip+"|"+login]
	l.mu.Unlock()
	if !ok {
		return l.maxAttempts
	}
	tokens := int(entry.lim.TokensAt(time.Now()))
	if tokens < 0 {
		return 0
	}
	return tokens
}

// Prune drops limiter entries idle for longer than the window, bounding the
// map for callers that run it periodically.
func (l *LoginLimiter) Prune() {
	cutoff := time.Now().Add(-2 * l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

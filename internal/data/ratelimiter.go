package data

import (
	"context"
	"sync"
	"time"
)

// RateLimiter spaces consecutive requests at least interval apart. It is
// shared by every worker so that the fan-out never bursts past the exchange's
// request quota.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	next     time.Time
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing one request per interval.
// An interval <= 0 disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		now:      time.Now,
	}
}

// Wait blocks until the caller may issue a request or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil || rl.interval <= 0 {
		return ctx.Err()
	}

	rl.mu.Lock()
	now := rl.now()
	slot := rl.next
	if slot.Before(now) {
		slot = now
	}
	rl.next = slot.Add(rl.interval)
	rl.mu.Unlock()

	delay := slot.Sub(now)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

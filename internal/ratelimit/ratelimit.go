// ABOUTME: Global fixed-interval rate limiter shared by all outbound dispatches
// ABOUTME: Serializes acquires so consecutive dispatches are at least one interval apart

package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter enforces a minimum interval between dispatches. The limit is
// process-wide and identity-agnostic: every caller shares the same timestamp.
//
// A single shared timestamp is sufficient here because the remote API
// enforces a fixed request cadence rather than a burst allowance.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Limiter allowing requests per period. Zero or negative
// parameters are configuration errors and fail here, not at first use.
func New(requests int, period time.Duration) (*Limiter, error) {
	if requests <= 0 {
		return nil, fmt.Errorf("rate limit requests must be positive, got %d", requests)
	}
	if period <= 0 {
		return nil, fmt.Errorf("rate limit period must be positive, got %s", period)
	}

	l := &Limiter{
		interval: period / time.Duration(requests),
		now:      time.Now,
		sleep:    sleepContext,
	}
	l.last = l.now()
	return l, nil
}

// Interval returns the minimum gap between dispatches.
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// Acquire blocks until a dispatch slot is free, then consumes it.
//
// The check-sleep-update sequence is a single critical section: holding the
// lock across the sleep serializes all acquires, so two concurrent callers
// can never both observe a stale timestamp and dispatch within the same
// interval. The timestamp is updated exactly once per call, after any sleep;
// the slot is consumed here regardless of whether the caller's subsequent
// network call succeeds.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := l.now().Sub(l.last)
	if wait := l.interval - elapsed; wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}

	l.last = l.now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ABOUTME: Tests for the global fixed-interval rate limiter
// ABOUTME: Uses an injected clock and sleep to make wait times deterministic

package ratelimit

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the limiter without real waiting: sleeps are recorded
// and advance the clock instead of blocking.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	ctxErr error
}

func (c *fakeClock) install(l *Limiter) {
	l.now = func() time.Time { return c.now }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		if c.ctxErr != nil {
			return c.ctxErr
		}
		c.slept = append(c.slept, d)
		c.now = c.now.Add(d)
		return nil
	}
	l.last = c.now
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		l, err := New(2, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 500*time.Millisecond, l.Interval())
	})

	t.Run("zero requests", func(t *testing.T) {
		_, err := New(0, time.Second)
		assert.Error(t, err)
	})

	t.Run("negative requests", func(t *testing.T) {
		_, err := New(-3, time.Second)
		assert.Error(t, err)
	})

	t.Run("zero period", func(t *testing.T) {
		_, err := New(2, 0)
		assert.Error(t, err)
	})
}

func TestAcquireWaitsRemainder(t *testing.T) {
	l, err := New(2, time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1000, 0)}
	clock.install(l)

	// 200ms into a 500ms interval: the acquire should wait out the rest
	clock.now = clock.now.Add(200 * time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))

	require.Len(t, clock.slept, 1)
	assert.Equal(t, 300*time.Millisecond, clock.slept[0])
}

func TestAcquireNoWaitAfterInterval(t *testing.T) {
	l, err := New(2, time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1000, 0)}
	clock.install(l)

	// A full interval has already elapsed: no sleep at all
	clock.now = clock.now.Add(500 * time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))
	assert.Empty(t, clock.slept)

	// And well past one interval behaves the same
	clock.now = clock.now.Add(3 * time.Second)
	require.NoError(t, l.Acquire(context.Background()))
	assert.Empty(t, clock.slept)
}

func TestAcquireBackToBack(t *testing.T) {
	l, err := New(2, time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1000, 0)}
	clock.install(l)

	// Three immediate acquires: each must wait a full interval
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}

	require.Len(t, clock.slept, 3)
	for _, d := range clock.slept {
		assert.Equal(t, 500*time.Millisecond, d)
	}
}

func TestAcquireCancellation(t *testing.T) {
	l, err := New(2, time.Second)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Unix(1000, 0), ctxErr: context.Canceled}
	clock.install(l)

	err = l.Acquire(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	// A cancelled acquire must not consume the slot: once the context
	// error clears, the very next acquire still waits the full interval
	clock.ctxErr = nil
	require.NoError(t, l.Acquire(context.Background()))
	require.Len(t, clock.slept, 1)
	assert.Equal(t, 500*time.Millisecond, clock.slept[0])
}

func TestAcquireRealClockSpacing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-clock test in short mode")
	}

	l, err := New(100, time.Second) // 10ms interval keeps the test fast
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, l.Acquire(context.Background()))
	require.NoError(t, l.Acquire(context.Background()))
	elapsed := time.Since(start)

	// Two consecutive acquires span at least one interval
	assert.GreaterOrEqual(t, elapsed, l.Interval())
}

func TestAcquireConcurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-clock test in short mode")
	}

	l, err := New(100, time.Second)
	require.NoError(t, err)

	const n = 5
	times := make([]time.Time, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var idx int

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.Acquire(context.Background()))
			mu.Lock()
			times[idx] = time.Now()
			idx++
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	// Consecutive completions must be at least one interval apart
	// (small epsilon for timer slop)
	epsilon := time.Millisecond
	for i := 1; i < n; i++ {
		gap := times[i].Sub(times[i-1])
		assert.GreaterOrEqual(t, gap, l.Interval()-epsilon,
			"acquires %d and %d only %s apart", i-1, i, gap)
	}
}

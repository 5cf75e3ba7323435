package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowAllow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := New(time.Hour, 3, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		d := rl.Allow("user-1")
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
		now = now.Add(time.Minute)
	}

	d := rl.Allow("user-1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), d.Reset)

	assert.True(t, rl.Allow("user-2").Allowed, "keys are independent")

	// First request leaves the window, freeing one slot.
	now = time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	d = rl.Allow("user-1")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.False(t, rl.Allow("user-1").Allowed)
}

func TestSlidingWindowRejectedRequestsDoNotCount(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := New(time.Minute, 1, func() time.Time { return now })

	assert.True(t, rl.Allow("k").Allowed)
	for i := 0; i < 5; i++ {
		now = now.Add(5 * time.Second)
		assert.False(t, rl.Allow("k").Allowed)
	}

	now = now.Add(40 * time.Second)
	assert.True(t, rl.Allow("k").Allowed)
}

func TestSlidingWindowCleanup(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := New(time.Minute, 10, func() time.Time { return now })

	rl.Allow("a")
	rl.Allow("b")
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Minute)
	rl.Allow("b")
	rl.Cleanup()
	assert.Equal(t, 1, rl.size())
}

func TestSlidingWindowConcurrent(t *testing.T) {
	rl := New(time.Hour, 50, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, allowed)
}

func TestSlidingWindowZeroLimitDenies(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := New(time.Minute, 0, func() time.Time { return now })

	var d Decision
	assert.NotPanics(t, func() { d = rl.Allow("k") })
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, now.Add(time.Minute), d.Reset)
}

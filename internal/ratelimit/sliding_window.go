package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call, carrying what the
// X-RateLimit-* headers report.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the oldest request in the window expires.
	Reset time.Time
}

// SlidingWindow keeps, per key, the timestamps of accepted requests within
// the window. Old timestamps are pruned on every call.
type SlidingWindow struct {
	requests map[string][]time.Time
	window   time.Duration
	limit    int
	now      func() time.Time
	mutex    sync.Mutex
}

// New builds a limiter; now may be nil to use time.Now.
func New(window time.Duration, limit int, now func() time.Time) *SlidingWindow {
	if now == nil {
		now = time.Now
	}
	return &SlidingWindow{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		now:      now,
	}
}

func (rl *SlidingWindow) Allow(key string) Decision {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	if rl.limit <= 0 {
		return Decision{Allowed: false, Limit: rl.limit, Reset: now.Add(rl.window)}
	}
	valid := prune(rl.requests[key], now.Add(-rl.window))

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return Decision{
			Allowed:   false,
			Limit:     rl.limit,
			Remaining: 0,
			Reset:     valid[0].Add(rl.window),
		}
	}

	valid = append(valid, now)
	rl.requests[key] = valid
	return Decision{
		Allowed:   true,
		Limit:     rl.limit,
		Remaining: rl.limit - len(valid),
		Reset:     valid[0].Add(rl.window),
	}
}

// Cleanup drops keys whose timestamps have all expired.
func (rl *SlidingWindow) Cleanup() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for key, reqs := range rl.requests {
		valid := prune(reqs, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *SlidingWindow) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (rl *SlidingWindow) size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.requests)
}

func prune(reqs []time.Time, cutoff time.Time) []time.Time {
	var valid []time.Time
	for _, t := range reqs {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}

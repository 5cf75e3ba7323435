package credentials

import (
	"sync"
	"time"
)

// AttemptDecision is the result of AttemptTracker.Check.
type AttemptDecision struct {
	Allowed    bool
	Locked     bool
	Remaining  int
	RetryAfter time.Duration
}

type attempts struct {
	count       int
	last        time.Time
	lockedUntil time.Time
}

// AttemptTracker counts failed authentications per identifier (an email or
// a client IP) and locks the identifier once the count reaches max. State is
// process-local.
type AttemptTracker struct {
	mu      sync.Mutex
	max     int
	lockFor time.Duration
	now     func() time.Time
	entries map[string]*attempts
}

// NewAttemptTracker builds a tracker; now may be nil to use time.Now.
func NewAttemptTracker(maxAttempts int, lockFor time.Duration, now func() time.Time) *AttemptTracker {
	if now == nil {
		now = time.Now
	}
	return &AttemptTracker{
		max:     maxAttempts,
		lockFor: lockFor,
		now:     now,
		entries: make(map[string]*attempts),
	}
}

func (t *AttemptTracker) Check(id string) AttemptDecision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.entries[id]
	if !ok {
		return AttemptDecision{Allowed: true, Remaining: t.max}
	}

	if !entry.lockedUntil.IsZero() {
		if entry.lockedUntil.After(now) {
			return AttemptDecision{Locked: true, RetryAfter: entry.lockedUntil.Sub(now)}
		}
		delete(t.entries, id)
		return AttemptDecision{Allowed: true, Remaining: t.max}
	}

	remaining := t.max - entry.count
	if remaining <= 0 {
		entry.lockedUntil = now.Add(t.lockFor)
		return AttemptDecision{Locked: true, RetryAfter: t.lockFor}
	}
	return AttemptDecision{Allowed: true, Remaining: remaining}
}

// RecordFailure counts one failed attempt and returns the new count.
func (t *AttemptTracker) RecordFailure(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[id]
	if !ok {
		entry = &attempts{}
		t.entries[id] = entry
	}
	entry.count++
	entry.last = t.now()
	return entry.count
}

func (t *AttemptTracker) Clear(id string) {
	t.mu.Lock()
	delete(t.entries, id)
	t.mu.Unlock()
}

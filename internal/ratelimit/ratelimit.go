// Package ratelimit implements an in-memory, sliding-window rate limiter
// with per-identifier windows across two tiers (per-minute and per-hour).
//
// The limiter is process-local and advisory: it protects the remote
// execution API from a runaway caller inside this process, it is not a
// security boundary across processes. Construct one instance per process and
// pass it by reference; tests construct their own instead of resetting a
// shared singleton.
//
// This type is safe for concurrent use.
package ratelimit

import (
	"sync"
	"time"
)

// tier describes one sliding window: at most Limit calls within Window.
type tier struct {
	name       string
	window     time.Duration
	limit      int
	retryAfter int // seconds reported on rejection: the window length
}

// Default tier parameters: 60 calls per rolling minute, 1000 per rolling
// hour. The minute tier is evaluated first.
var defaultTiers = []tier{
	{name: "minute", window: time.Minute, limit: 60, retryAfter: 60},
	{name: "hour", window: time.Hour, limit: 1000, retryAfter: 3600},
}

// Decision is the outcome of a limiter check.
type Decision struct {
	Allowed bool
	// RetryAfterSeconds is the fixed window length of the exhausted tier,
	// not the precise time until its oldest timestamp expires.
	RetryAfterSeconds int
}

// Limiter tracks recent call timestamps per "identifier:tier" key.
//
// On every check the stored timestamps outside the window are pruned first,
// then the count is compared against the tier limit. Idle keys are evicted
// opportunistically after a threshold of lookups to bound memory.
type Limiter struct {
	mu      sync.Mutex
	tiers   []tier
	calls   map[string][]time.Time
	now     func() time.Time
	lookupN uint64
}

// New constructs a Limiter with the default two tiers and the wall clock.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock constructs a Limiter using now as its clock. Tests inject a
// fake clock to drive the windows deterministically.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{
		tiers: defaultTiers,
		calls: make(map[string][]time.Time),
		now:   now,
	}
}

// Allow evaluates both tiers for identifier, minute tier first.
//
// If any tier is already at its limit the call is rejected with that tier's
// retry-after and no timestamp is recorded. Otherwise the current instant is
// recorded in every tier and the call is allowed.
func (l *Limiter) Allow(identifier string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeEvict(now)

	// Prune first, then test. Rejected calls do not consume quota.
	for _, t := range l.tiers {
		key := identifier + ":" + t.name
		kept := pruneOlder(l.calls[key], now.Add(-t.window))
		l.calls[key] = kept
		if len(kept) >= t.limit {
			return Decision{RetryAfterSeconds: t.retryAfter}
		}
	}

	for _, t := range l.tiers {
		key := identifier + ":" + t.name
		l.calls[key] = append(l.calls[key], now)
	}
	return Decision{Allowed: true}
}

// Reset drops all recorded state. Intended for test isolation, not
// production use.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.calls = make(map[string][]time.Time)
	l.lookupN = 0
	l.mu.Unlock()
}

// maybeEvict drops keys whose every timestamp has aged out of the hour
// window. Runs after a threshold of lookups, before the current key is
// touched, so a stale key can be evicted even when it is the one being
// checked. Callers must hold l.mu.
func (l *Limiter) maybeEvict(now time.Time) {
	l.lookupN++
	if l.lookupN < 5000 {
		return
	}
	l.lookupN = 0
	oldest := now.Add(-time.Hour)
	for k, ts := range l.calls {
		if len(pruneOlder(ts, oldest)) == 0 {
			delete(l.calls, k)
		}
	}
}

// pruneOlder returns ts without entries at or before cutoff. Timestamps are
// appended in order, so the first retained index bounds the rest.
func pruneOlder(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}

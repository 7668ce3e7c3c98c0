package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter is a fixed-window request counter keyed by an arbitrary string
// (user id or client address). It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]*window

	now func() time.Time // overridable in tests
}

func New(windowLen time.Duration, max int) *Limiter {
	return &Limiter{
		window:  windowLen,
		max:     max,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the
// current window. An elapsed window resets on the next request rather than
// on a timer.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= l.window {
		l.entries[key] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.max
}

// Prune drops expired windows so idle keys don't accumulate. Callers run it
// periodically; Allow never needs it for correctness.
func (l *Limiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.entries {
		if now.Sub(w.start) >= l.window {
			delete(l.entries, key)
		}
	}
}

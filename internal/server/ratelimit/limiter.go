// Package ratelimit implements a fixed-window request limiter keyed by
// client address. It is a single-process, best-effort guard for sensitive
// endpoints, not a distributed limiter.
package ratelimit

import (
	"sync"
	"time"

	"github.com/fortislabs/fortis/internal/common"
)

type window struct {
	start time.Time
	count int
}

// Limiter tracks one counting window per key. All state lives in process
// memory and is owned by the Limiter instance; construct it once at
// startup and inject it where needed.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	windows map[string]*window

	now func() time.Time
}

func NewLimiter(maxRequests int, windowSize time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		window:      windowSize,
		windows:     make(map[string]*window),
		now:         time.Now,
	}
}

// Allow records a request from key and reports whether it may proceed.
// The window reset and the increment happen under one lock, so the count
// never exceeds the ceiling under concurrent callers. A rejected request
// does not increment further.
func (l *Limiter) Allow(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > l.window {
		l.windows[key] = &window{start: now, count: 1}
		return nil
	}

	if w.count >= l.maxRequests {
		return common.ErrRateLimitExceeded
	}
	w.count++

	return nil
}

// Sweep drops windows that elapsed before cutoff. Callers may run it
// periodically to keep the map from accumulating idle keys.
func (l *Limiter) Sweep(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if w.start.Add(l.window).Before(cutoff) {
			delete(l.windows, key)
		}
	}
}

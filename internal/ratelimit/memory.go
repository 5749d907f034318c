package ratelimit

import (
	"context"
	"sync"
	"time"
)

// bucket counts requests inside a one-second fixed window.
type bucket struct {
	windowStart int64
	used        int
}

// MemoryLimiter is the in-process fallback backend. It keeps one bucket per
// key and drops stale buckets as windows roll over, so the map stays bounded
// by the set of keys active in the last second.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]bucket
	lastSweep int64
}

// NewMemoryLimiter builds an empty in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: make(map[string]bucket)}
}

// Allow consumes one unit of the key's budget for the window containing now.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	window := now.Unix()
	reset := time.Unix(window+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepStale(window)

	b := l.buckets[key]
	if b.windowStart != window {
		b = bucket{windowStart: window}
	}
	if b.used >= limit {
		l.buckets[key] = b
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	b.used++
	l.buckets[key] = b
	return Result{Allowed: true, Remaining: limit - b.used, Reset: reset}, nil
}

// sweepStale removes buckets from earlier windows. It runs at most once per
// window so a burst of requests pays the map scan only once.
func (l *MemoryLimiter) sweepStale(window int64) {
	if l.lastSweep == window {
		return
	}
	l.lastSweep = window
	for key, b := range l.buckets {
		if b.windowStart != window {
			delete(l.buckets, key)
		}
	}
}

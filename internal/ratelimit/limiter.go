// Package ratelimit provides an in-process fixed-window request limiter keyed
// by caller. Instances are injected; there is no package level state.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts requests per key inside fixed windows. Expired windows are
// swept on writes and the number of tracked keys is bounded.
type Limiter struct {
	mu         sync.Mutex
	now        func() time.Time
	limit      int
	window     time.Duration
	maxEntries int
	entries    map[string]windowEntry
}

type windowEntry struct {
	count     int
	expiresAt time.Time
}

// New constructs a limiter allowing limit requests per window for each key.
// A limit of zero or less disables limiting.
func New(limit int, window time.Duration, maxEntries int, now func() time.Time) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		now:        now,
		limit:      limit,
		window:     window,
		maxEntries: maxEntries,
		entries:    make(map[string]windowEntry),
	}
}

// Allow records one request for key. When the key has exhausted its window it
// reports false together with the time until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l == nil || l.limit <= 0 {
		return true, 0
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		if !ok {
			l.cleanupLocked(now)
			if len(l.entries) >= l.maxEntries {
				l.evictOneLocked()
			}
		}
		l.entries[key] = windowEntry{count: 1, expiresAt: now.Add(l.window)}
		return true, 0
	}

	if entry.count >= l.limit {
		return false, entry.expiresAt.Sub(now)
	}
	entry.count++
	l.entries[key] = entry
	return true, 0
}

// Reset forgets every tracked key.
func (l *Limiter) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = make(map[string]windowEntry)
	l.mu.Unlock()
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) cleanupLocked(now time.Time) {
	for key, entry := range l.entries {
		if !now.Before(entry.expiresAt) {
			delete(l.entries, key)
		}
	}
}

func (l *Limiter) evictOneLocked() {
	for key := range l.entries {
		delete(l.entries, key)
		return
	}
}

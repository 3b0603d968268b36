package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func TestLimiterAllowsUpToLimitPerWindow(t *testing.T) {
	t.Parallel()

	clock := newClock()
	limiter := New(2, time.Minute, 10, clock.now)

	ok, _ := limiter.Allow("owner-a")
	assert.True(t, ok)
	ok, _ = limiter.Allow("owner-a")
	assert.True(t, ok)

	ok, retry := limiter.Allow("owner-a")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	// other keys have their own window
	ok, _ = limiter.Allow("owner-b")
	assert.True(t, ok)

	clock.advance(20 * time.Second)
	_, retry = limiter.Allow("owner-a")
	assert.Equal(t, 40*time.Second, retry)

	clock.advance(40 * time.Second)
	ok, _ = limiter.Allow("owner-a")
	assert.True(t, ok)
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	limiter := New(0, time.Minute, 10, nil)
	for i := 0; i < 100; i++ {
		ok, _ := limiter.Allow("owner")
		assert.True(t, ok)
	}
	assert.Zero(t, limiter.Len())

	var nilLimiter *Limiter
	ok, _ := nilLimiter.Allow("owner")
	assert.True(t, ok)
}

func TestLimiterBoundsTrackedKeys(t *testing.T) {
	t.Parallel()

	clock := newClock()
	limiter := New(1, time.Minute, 2, clock.now)

	limiter.Allow("a")
	limiter.Allow("b")
	limiter.Allow("c")
	assert.Equal(t, 2, limiter.Len())

	clock.advance(time.Minute)
	limiter.Allow("d")
	assert.Equal(t, 1, limiter.Len())

	limiter.Reset()
	assert.Zero(t, limiter.Len())
}

func TestLimiterConcurrentUse(t *testing.T) {
	t.Parallel()

	limiter := New(50, time.Hour, 10, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("shared"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

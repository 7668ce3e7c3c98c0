package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowBoundary(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(15*time.Minute, 5)
	l.now = func() time.Time { return now }

	// exactly the ceiling passes
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("key"), "request %d should pass", i+1)
	}
	// the (N+1)th is rejected
	assert.False(t, l.Allow("key"))
	// and stays rejected within the same window
	assert.False(t, l.Allow("key"))
}

func TestWindowReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(15*time.Minute, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("key"))
	assert.True(t, l.Allow("key"))
	assert.False(t, l.Allow("key"))

	now = now.Add(15 * time.Minute)
	assert.True(t, l.Allow("key"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(time.Minute, 1)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}

func TestPrune(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(time.Minute, 10)
	l.now = func() time.Time { return now }

	l.Allow("stale")
	now = now.Add(2 * time.Minute)
	l.Allow("fresh")
	l.Prune()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.entries, "stale")
	assert.Contains(t, l.entries, "fresh")
}

func TestAllowConcurrent(t *testing.T) {
	l := New(time.Minute, 1000)

	var wg sync.WaitGroup
	allowed := make([]bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			allowed[i] = l.Allow("shared")
		}(i)
	}
	wg.Wait()

	for i, ok := range allowed {
		assert.True(t, ok, "request %d", i)
	}
}

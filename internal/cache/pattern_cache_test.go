package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration) *PatternCache {
	return NewPatternCache(Config{
		MaxEntries:  8,
		TTL:         ttl,
		AutoCleanup: false,
	})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "true:false:a.b", Key("a.b", true, false))
	assert.NotEqual(t, Key("x", true, false), Key("x", false, false))
	assert.NotEqual(t, Key("x", false, true), Key("x", false, false))
}

func TestGetPut(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Close()

	key := Key("needle", false, false)
	assert.Nil(t, c.Get(key))

	c.Put(key, "compiled")
	assert.Equal(t, "compiled", c.Get(key))

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Entries)
}

func TestExpiredEntriesDropLazily(t *testing.T) {
	c := newTestCache(time.Nanosecond)
	defer c.Close()

	key := Key("stale", false, false)
	c.Put(key, "compiled")
	time.Sleep(time.Millisecond)

	assert.Nil(t, c.Get(key))
	assert.Equal(t, int64(0), c.Stats().Entries)
}

func TestCapacityResetsCache(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Put(Key(fmt.Sprintf("q%d", i), false, false), i)
	}
	stats := c.Stats()
	assert.LessOrEqual(t, stats.Entries, int64(8))
	assert.Greater(t, stats.Evictions, int64(0))
}

func TestPutSameKeyKeepsCount(t *testing.T) {
	c := newTestCache(time.Minute)
	defer c.Close()

	key := Key("same", false, false)
	c.Put(key, 1)
	c.Put(key, 2)
	assert.Equal(t, 2, c.Get(key))
	assert.Equal(t, int64(1), c.Stats().Entries)
}

func TestConcurrentAccess(t *testing.T) {
	c := NewPatternCache(Config{MaxEntries: 1000, TTL: time.Minute, AutoCleanup: false})
	defer c.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := Key(fmt.Sprintf("q%d", i%20), g%2 == 0, false)
				if c.Get(key) == nil {
					c.Put(key, i)
				}
			}
		}(g)
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(800), stats.TotalRequests)
	assert.Greater(t, stats.Hits, int64(0))
}

func TestAutoCleanup(t *testing.T) {
	c := NewPatternCache(Config{
		MaxEntries:      8,
		TTL:             time.Nanosecond,
		AutoCleanup:     true,
		CleanupInterval: 5 * time.Millisecond,
	})
	defer c.Close()

	c.Put(Key("doomed", false, false), "compiled")
	require.Eventually(t, func() bool {
		return c.Stats().Entries == 0
	}, time.Second, 5*time.Millisecond)
	assert.Greater(t, c.Stats().Evictions, int64(0))

	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

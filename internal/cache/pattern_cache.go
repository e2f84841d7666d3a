// Package cache provides lock-free caching of compiled search patterns.
// Watch mode re-runs the same search on every document refresh; compiling
// the pattern once per query instead of once per refresh keeps the refresh
// path allocation-light.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultMaxEntries      = 128
	DefaultTTL             = 15 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
)

// CachedPattern is one cache entry.
type CachedPattern struct {
	Data        interface{}
	CachedAt    int64 // Unix nano for atomic compare
	AccessCount int64 // Atomic counter
}

// PatternCache caches compiled patterns using sync.Map with atomic counters.
type PatternCache struct {
	entries sync.Map // map[string]*CachedPattern

	maxEntries int
	ttlNanos   int64

	hits          int64
	misses        int64
	evictions     int64
	totalRequests int64
	entryCount    int64

	createdAt time.Time
	stop      chan struct{}
	stopOnce  sync.Once
}

// Config defines cache tuning options.
type Config struct {
	MaxEntries      int
	TTL             time.Duration
	AutoCleanup     bool
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxEntries:      DefaultMaxEntries,
		TTL:             DefaultTTL,
		AutoCleanup:     true,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// NewPatternCache creates a cache. When AutoCleanup is off, expired entries
// are dropped lazily on access and capacity is enforced on Put.
func NewPatternCache(config Config) *PatternCache {
	c := &PatternCache{
		maxEntries: config.MaxEntries,
		ttlNanos:   config.TTL.Nanoseconds(),
		createdAt:  time.Now(),
		stop:       make(chan struct{}),
	}
	if config.AutoCleanup {
		go c.autoCleanup(config.CleanupInterval)
	}
	return c
}

// Key builds the cache key for one search configuration.
func Key(query string, regex, caseSensitive bool) string {
	var b strings.Builder
	b.Grow(len(query) + 4)
	b.WriteString(strconv.FormatBool(regex))
	b.WriteByte(':')
	b.WriteString(strconv.FormatBool(caseSensitive))
	b.WriteByte(':')
	b.WriteString(query)
	return b.String()
}

// Get retrieves a cached pattern, or nil on miss. Expired entries are
// deleted lazily.
func (c *PatternCache) Get(key string) interface{} {
	atomic.AddInt64(&c.totalRequests, 1)
	now := time.Now().UnixNano()

	if val, ok := c.entries.Load(key); ok {
		cached := val.(*CachedPattern)
		if now-atomic.LoadInt64(&cached.CachedAt) <= c.ttlNanos {
			atomic.AddInt64(&cached.AccessCount, 1)
			atomic.AddInt64(&c.hits, 1)
			return cached.Data
		}
		c.entries.Delete(key)
		atomic.AddInt64(&c.entryCount, -1)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil
}

// Put stores a compiled pattern. At capacity the whole cache is reset rather
// than tracking LRU order; pattern compilation is cheap enough that a cold
// cache costs one refresh.
func (c *PatternCache) Put(key string, data interface{}) {
	if atomic.LoadInt64(&c.entryCount) >= int64(c.maxEntries) {
		c.reset()
	}
	entry := &CachedPattern{
		Data:     data,
		CachedAt: time.Now().UnixNano(),
	}
	if _, loaded := c.entries.Swap(key, entry); !loaded {
		atomic.AddInt64(&c.entryCount, 1)
	}
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	TotalRequests int64
	Entries       int64
	Uptime        time.Duration
}

// Stats returns a snapshot of the cache counters.
func (c *PatternCache) Stats() Stats {
	return Stats{
		Hits:          atomic.LoadInt64(&c.hits),
		Misses:        atomic.LoadInt64(&c.misses),
		Evictions:     atomic.LoadInt64(&c.evictions),
		TotalRequests: atomic.LoadInt64(&c.totalRequests),
		Entries:       atomic.LoadInt64(&c.entryCount),
		Uptime:        time.Since(c.createdAt),
	}
}

// Close stops the auto-cleanup goroutine. Safe to call more than once.
func (c *PatternCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *PatternCache) autoCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries and recounts.
func (c *PatternCache) cleanup() {
	now := time.Now().UnixNano()
	var count int64
	c.entries.Range(func(key, val interface{}) bool {
		cached := val.(*CachedPattern)
		if now-atomic.LoadInt64(&cached.CachedAt) > c.ttlNanos {
			c.entries.Delete(key)
			atomic.AddInt64(&c.evictions, 1)
			return true
		}
		count++
		return true
	})
	atomic.StoreInt64(&c.entryCount, count)
}

func (c *PatternCache) reset() {
	c.entries.Range(func(key, _ interface{}) bool {
		c.entries.Delete(key)
		atomic.AddInt64(&c.evictions, 1)
		return true
	})
	atomic.StoreInt64(&c.entryCount, 0)
}

package recurrence

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"sync"
	"time"
)

// CacheEntry is one memoized expansion
type CacheEntry struct {
	Occurrences []time.Time
	ExpiresAt   time.Time
	AccessedAt  time.Time
}

// ExpansionCache memoizes Generate results keyed by rule and bounds
type ExpansionCache struct {
	entries         map[string]*CacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
	now             func() time.Time
}

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for expansion caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewExpansionCache creates a cache and starts its cleanup goroutine. Call
// Close to stop it.
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	cache := &ExpansionCache{
		entries:         make(map[string]*CacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	if cache.cleanupInterval > 0 {
		go cache.cleanupLoop()
	}

	return cache
}

// cacheKey hashes every input that influences an expansion
func cacheKey(rule Rule, opts ExpansionOptions) string {
	hasher := sha256.New()
	write := func(s string) {
		hasher.Write([]byte(s))
		hasher.Write([]byte{0})
	}

	write(string(rule.frequency))
	write(strconv.Itoa(rule.interval))
	for _, d := range rule.daysOfWeek {
		write(d.String())
	}
	write("|")
	for _, d := range rule.daysOfMonth {
		write(strconv.Itoa(d))
	}
	write("|")
	write(string(rule.end.Kind()))
	write(strconv.Itoa(rule.end.count))
	write(rule.end.date.Format(time.RFC3339Nano))
	write(rule.anchor.Format(time.RFC3339Nano))
	write(rule.anchor.Location().String())

	write(opts.Horizon.Format(time.RFC3339Nano))
	write(strconv.Itoa(opts.MaxOccurrences))

	return hex.EncodeToString(hasher.Sum(nil))
}

// Get returns a copy of the cached expansion if present and not expired
func (c *ExpansionCache) Get(rule Rule, opts ExpansionOptions) ([]time.Time, bool) {
	key := cacheKey(rule, opts)
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	entry.AccessedAt = now

	return slices.Clone(entry.Occurrences), true
}

// Set stores a copy of occurrences
func (c *ExpansionCache) Set(rule Rule, opts ExpansionOptions, occurrences []time.Time) {
	key := cacheKey(rule, opts)
	now := c.now()

	entry := &CacheEntry{
		Occurrences: slices.Clone(occurrences),
		ExpiresAt:   now.Add(c.ttl),
		AccessedAt:  now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry
	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup drops expired entries, then the least recently used ones until the
// cache is within maxEntries. Callers hold the write lock.
func (c *ExpansionCache) cleanup() {
	now := c.now()

	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	excess := len(c.entries) - c.maxEntries
	if excess <= 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return c.entries[a].AccessedAt.Compare(c.entries[b].AccessedAt)
	})
	for _, key := range keys[:excess] {
		delete(c.entries, key)
	}
}

func (c *ExpansionCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *ExpansionCache) Close() {
	c.closeOnce.Do(func() { close(c.stopCleanup) })
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *ExpansionCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	now := c.now()
	expired := 0
	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expired++
		}
	}

	return CacheStats{
		TotalEntries:   len(c.entries),
		ExpiredEntries: expired,
		ActiveEntries:  len(c.entries) - expired,
	}
}

// CacheStats provides information about cache occupancy
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}

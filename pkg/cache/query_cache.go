// Package cache provides a thread-safe LRU cache for parsed Cypher query
// plans, so identical queries skip re-parsing on repeat execution.
//
// Usage:
//
//	c := cache.NewQueryCache(1000, 5*time.Minute)
//	key := c.Key(query, params)
//	if plan, ok := c.Get(key); ok {
//		return plan.(*ParsedPlan)
//	}
//	c.Put(key, parseQuery(query))
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

// CacheStats holds cache performance statistics.
type CacheStats struct {
	Size    int
	MaxSize int
	Hits    uint64
	Misses  uint64
	HitRate float64 // percentage, 0-100
}

// cacheEntry is the value stored in each LRU list element.
type cacheEntry struct {
	key       uint64
	value     interface{}
	expiresAt time.Time // zero means no expiration
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// QueryCache is a thread-safe LRU cache for parsed query plans, backed by a
// hash map for O(1) lookup and a doubly-linked list for recency ordering.
// Entries optionally expire after a TTL regardless of recency.
type QueryCache struct {
	mu sync.RWMutex

	maxSize int
	ttl     time.Duration
	enabled bool

	order *list.List
	items map[uint64]*list.Element

	hits   uint64
	misses uint64
}

// NewQueryCache creates a cache holding up to maxSize plans (LRU-evicted
// beyond that), each expiring after ttl (0 disables expiration, leaving
// only LRU eviction).
func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &QueryCache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		order:   list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

// Key hashes query and the parameter names (not values, so differently
// parameterized invocations of the same query still share a cache key)
// into a lookup key for Get/Put.
func (c *QueryCache) Key(query string, params map[string]interface{}) uint64 {
	h := fnv.New64a()
	h.Write([]byte(query))
	for name := range params {
		h.Write([]byte(name))
	}
	return h.Sum64()
}

// Get returns the cached plan for key, or (nil, false) on a miss - whether
// because the key was never stored, was evicted, or its TTL elapsed.
func (c *QueryCache) Get(key uint64) (interface{}, bool) {
	if !c.enabled {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.mu.Lock()
	elem, ok := c.items[key]
	if !ok {
		c.mu.Unlock()
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if entry.expired(time.Now()) {
		c.removeElement(elem)
		c.mu.Unlock()
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.mu.Unlock()

	atomic.AddUint64(&c.hits, 1)
	return entry.value, true
}

// Put stores value under key, refreshing an existing entry in place or
// evicting the least-recently-used entry to make room for a new one.
func (c *QueryCache) Put(key uint64, value interface{}) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = c.expiryFromNow()
		c.order.MoveToFront(elem)
		return
	}

	for c.order.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushFront(&cacheEntry{key: key, value: value, expiresAt: c.expiryFromNow()})
	c.items[key] = elem
}

func (c *QueryCache) expiryFromNow() time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.ttl)
}

// Remove evicts key if present.
func (c *QueryCache) Remove(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear empties the cache without affecting hit/miss counters.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetStorage()
}

func (c *QueryCache) resetStorage() {
	c.order.Init()
	c.items = make(map[uint64]*list.Element, c.maxSize)
}

// Len returns the number of entries currently cached.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Stats reports cumulative hit/miss counts and current size.
func (c *QueryCache) Stats() CacheStats {
	hits := atomic.LoadUint64(&c.hits)
	misses := atomic.LoadUint64(&c.misses)

	c.mu.RLock()
	size := c.order.Len()
	c.mu.RUnlock()

	stats := CacheStats{Size: size, MaxSize: c.maxSize, Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total) * 100
	}
	return stats
}

// SetEnabled toggles the cache on or off. Disabling clears all entries;
// Get/Put become no-ops (misses/skips) until re-enabled.
func (c *QueryCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if !enabled {
		c.resetStorage()
	}
}

// evictOldest removes the least-recently-used entry. Caller must hold mu.
func (c *QueryCache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement drops elem from both the list and the index. Caller must
// hold mu.
func (c *QueryCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry).key)
}

// --- global convenience instance ---

var (
	globalQueryCache     *QueryCache
	globalQueryCacheOnce sync.Once
)

// GlobalQueryCache returns the lazily-initialized process-wide cache (1000
// entries, 5-minute TTL by default). Call ConfigureGlobalCache first to
// override those defaults.
func GlobalQueryCache() *QueryCache {
	globalQueryCacheOnce.Do(func() {
		globalQueryCache = NewQueryCache(1000, 5*time.Minute)
	})
	return globalQueryCache
}

// ConfigureGlobalCache sets the global cache's size and TTL. Only the first
// call takes effect - later calls are no-ops, matching GlobalQueryCache's
// lazy single-initialization.
func ConfigureGlobalCache(maxSize int, ttl time.Duration) {
	globalQueryCacheOnce.Do(func() {
		globalQueryCache = NewQueryCache(maxSize, ttl)
	})
}

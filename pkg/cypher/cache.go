// Package cypher - query result caching for performance optimization.
//
// Three caches live here, all sharing the same LRU-with-TTL shape:
//
//   - QueryCache: plain result cache, invalidated wholesale on any write.
//   - SmartQueryCache: result cache that only invalidates entries touching
//     the labels a write actually affected.
//   - QueryPlanCache: caches the parsed clause list for a normalized query
//     string, skipping the parser on repeat execution.
package cypher

import (
	"container/list"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// cacheLabelPattern finds node labels in a Cypher fragment, e.g. the
// "Label" in "(n:Label)" or "(:Label)".
var cacheLabelPattern = regexp.MustCompile(`\(\w*:(\w+)`)

// fnvCacheKey hashes cypher and, if present, a string rendering of params
// into a cache key. Different parameter values for the same query text
// therefore get distinct entries.
func fnvCacheKey(cypher string, params map[string]interface{}) string {
	h := fnv.New64a()
	h.Write([]byte(cypher))
	if params != nil {
		h.Write([]byte(fmt.Sprintf("%v", params)))
	}
	return strconv.FormatUint(h.Sum64(), 36)
}

// lruIndex tracks recency order for a set of keys without owning their
// values' storage - callers keep their own map from key to full entry and
// use lruIndex purely to know what to evict and what to promote.
type lruIndex[K comparable] struct {
	order *list.List
	elems map[K]*list.Element
}

func newLRUIndex[K comparable]() *lruIndex[K] {
	return &lruIndex[K]{order: list.New(), elems: make(map[K]*list.Element)}
}

func (l *lruIndex[K]) touch(key K) {
	if e, ok := l.elems[key]; ok {
		l.order.MoveToFront(e)
	}
}

func (l *lruIndex[K]) pushFront(key K) {
	l.elems[key] = l.order.PushFront(key)
}

func (l *lruIndex[K]) remove(key K) {
	if e, ok := l.elems[key]; ok {
		l.order.Remove(e)
		delete(l.elems, key)
	}
}

func (l *lruIndex[K]) len() int { return l.order.Len() }

// oldest returns the least-recently-touched key without removing it.
func (l *lruIndex[K]) oldest() (key K, ok bool) {
	e := l.order.Back()
	if e == nil {
		return key, false
	}
	return e.Value.(K), true
}

func (l *lruIndex[K]) reset() {
	l.order.Init()
	l.elems = make(map[K]*list.Element)
}

// --- plain result cache ---

// QueryCache is an LRU cache of Cypher query results with TTL expiration.
// A write operation invalidates the entire cache rather than tracking
// which entries it affects - see SmartQueryCache for the label-aware
// alternative.
type QueryCache struct {
	mu      sync.RWMutex
	cache   map[string]*cachedResult
	lru     *lruIndex[string]
	maxSize int
	hits    int64
	misses  int64
}

type cachedResult struct {
	result    *ExecuteResult
	timestamp time.Time
	ttl       time.Duration
}

func (r *cachedResult) expired() bool { return time.Since(r.timestamp) > r.ttl }

// NewQueryCache creates a cache holding up to maxSize results.
func NewQueryCache(maxSize int) *QueryCache {
	return &QueryCache{
		cache:   make(map[string]*cachedResult),
		lru:     newLRUIndex[string](),
		maxSize: maxSize,
	}
}

// Get returns the cached result for (cypher, params), or (nil, false) if
// absent or expired.
func (qc *QueryCache) Get(cypher string, params map[string]interface{}) (*ExecuteResult, bool) {
	key := fnvCacheKey(cypher, params)

	qc.mu.Lock()
	defer qc.mu.Unlock()

	cached, exists := qc.cache[key]
	if !exists {
		qc.misses++
		return nil, false
	}
	if cached.expired() {
		delete(qc.cache, key)
		qc.lru.remove(key)
		qc.misses++
		return nil, false
	}

	qc.lru.touch(key)
	qc.hits++
	return cached.result, true
}

// Put stores result under (cypher, params) for ttl, evicting the
// least-recently-used entry first if the cache is full.
func (qc *QueryCache) Put(cypher string, params map[string]interface{}, result *ExecuteResult, ttl time.Duration) {
	key := fnvCacheKey(cypher, params)

	qc.mu.Lock()
	defer qc.mu.Unlock()

	if _, exists := qc.cache[key]; !exists {
		for qc.lru.len() >= qc.maxSize {
			oldest, ok := qc.lru.oldest()
			if !ok {
				break
			}
			delete(qc.cache, oldest)
			qc.lru.remove(oldest)
		}
	}

	qc.cache[key] = &cachedResult{result: result, timestamp: time.Now(), ttl: ttl}
	qc.lru.touch(key)
	if _, tracked := qc.lru.elems[key]; !tracked {
		qc.lru.pushFront(key)
	}
}

// Invalidate clears every cached result. Called after writes (CREATE,
// DELETE, SET, REMOVE, MERGE) since any of them can change what a cached
// read should return.
func (qc *QueryCache) Invalidate() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.cache = make(map[string]*cachedResult)
	qc.lru.reset()
}

// Stats reports cumulative hit/miss counts and current entry count.
func (qc *QueryCache) Stats() (hits, misses int64, size int) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return qc.hits, qc.misses, len(qc.cache)
}

// --- label-aware result cache ---

// SmartQueryCache is a QueryCache that tracks which labels each entry
// depends on, so a write to :User only evicts entries that actually
// touched :User - queries scoped to other labels survive.
type SmartQueryCache struct {
	mu          sync.RWMutex
	cache       map[string]*smartCachedResult
	labelIndex  map[string]map[string]struct{} // label -> set of cache keys
	lru         *lruIndex[string]
	maxSize     int
	hits        int64
	misses      int64
	smartInvals int64
	fullInvals  int64
}

type smartCachedResult struct {
	result    *ExecuteResult
	timestamp time.Time
	ttl       time.Duration
	labels    []string
}

func (r *smartCachedResult) expired() bool { return time.Since(r.timestamp) > r.ttl }

// NewSmartQueryCache creates a label-aware cache holding up to maxSize
// results.
func NewSmartQueryCache(maxSize int) *SmartQueryCache {
	return &SmartQueryCache{
		cache:      make(map[string]*smartCachedResult),
		labelIndex: make(map[string]map[string]struct{}),
		lru:        newLRUIndex[string](),
		maxSize:    maxSize,
	}
}

// Get returns the cached result for (cypher, params), or (nil, false) if
// absent or expired.
func (sc *SmartQueryCache) Get(cypher string, params map[string]interface{}) (*ExecuteResult, bool) {
	key := fnvCacheKey(cypher, params)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	cached, exists := sc.cache[key]
	if !exists {
		sc.misses++
		return nil, false
	}
	if cached.expired() {
		sc.removeEntry(key)
		sc.misses++
		return nil, false
	}

	sc.lru.touch(key)
	sc.hits++
	return cached.result, true
}

// PutWithLabels stores result, indexing it under each of labels so a later
// InvalidateLabels call touching any of them evicts it.
func (sc *SmartQueryCache) PutWithLabels(cypher string, params map[string]interface{}, result *ExecuteResult, ttl time.Duration, labels []string) {
	key := fnvCacheKey(cypher, params)

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if _, exists := sc.cache[key]; exists {
		sc.removeEntry(key)
	}
	for sc.lru.len() >= sc.maxSize {
		oldest, ok := sc.lru.oldest()
		if !ok {
			break
		}
		sc.removeEntry(oldest)
	}

	sc.cache[key] = &smartCachedResult{result: result, timestamp: time.Now(), ttl: ttl, labels: labels}
	sc.lru.pushFront(key)
	for _, label := range labels {
		if sc.labelIndex[label] == nil {
			sc.labelIndex[label] = make(map[string]struct{})
		}
		sc.labelIndex[label][key] = struct{}{}
	}
}

// Put stores result, inferring which labels it depends on from the query
// text itself.
func (sc *SmartQueryCache) Put(cypher string, params map[string]interface{}, result *ExecuteResult, ttl time.Duration) {
	sc.PutWithLabels(cypher, params, result, ttl, extractLabelsFromQuery(cypher))
}

// InvalidateLabels evicts only entries that depend on one of labels,
// leaving entries scoped to other labels cached.
func (sc *SmartQueryCache) InvalidateLabels(labels []string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	toRemove := make(map[string]struct{})
	for _, label := range labels {
		for key := range sc.labelIndex[label] {
			toRemove[key] = struct{}{}
		}
	}
	for key := range toRemove {
		sc.removeEntry(key)
	}
	if len(toRemove) > 0 {
		sc.smartInvals++
	}
}

// Invalidate clears the entire cache - the fallback for writes too complex
// to attribute to specific labels.
func (sc *SmartQueryCache) Invalidate() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache = make(map[string]*smartCachedResult)
	sc.labelIndex = make(map[string]map[string]struct{})
	sc.lru.reset()
	sc.fullInvals++
}

// Stats reports hit/miss counts, current size, and how many invalidations
// were label-scoped versus full clears.
func (sc *SmartQueryCache) Stats() (hits, misses int64, size int, smartInvals, fullInvals int64) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.hits, sc.misses, len(sc.cache), sc.smartInvals, sc.fullInvals
}

// removeEntry drops key from the cache, its label indexes, and the LRU.
// Caller must hold sc.mu.
func (sc *SmartQueryCache) removeEntry(key string) {
	entry, ok := sc.cache[key]
	if !ok {
		return
	}
	for _, label := range entry.labels {
		keys := sc.labelIndex[label]
		delete(keys, key)
		if len(keys) == 0 {
			delete(sc.labelIndex, label)
		}
	}
	sc.lru.remove(key)
	delete(sc.cache, key)
}

// extractLabelsFromQuery finds node labels referenced in cypher (patterns
// like (n:Label), (:Label)), filtering out keywords the pattern can
// false-match.
func extractLabelsFromQuery(cypher string) []string {
	matches := cacheLabelPattern.FindAllStringSubmatch(cypher, -1)
	seen := make(map[string]struct{})
	var labels []string

	for _, m := range matches {
		if len(m) <= 1 {
			continue
		}
		label := m[1]
		switch label {
		case "RETURN", "WHERE", "AND", "OR":
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	return labels
}

// --- parsed query plan cache ---

// QueryPlanCache caches parsed query ASTs keyed on a whitespace-normalized
// query string, so equivalent queries that differ only in formatting share
// a cache entry and skip re-parsing.
type QueryPlanCache struct {
	mu      sync.RWMutex
	cache   map[string]*cachedPlan
	lru     *lruIndex[string]
	maxSize int
	hits    int64
	misses  int64
}

type cachedPlan struct {
	clauses   []Clause
	queryType QueryType
}

// NewQueryPlanCache creates a plan cache holding up to maxSize entries
// (defaulting to 500 when maxSize <= 0).
func NewQueryPlanCache(maxSize int) *QueryPlanCache {
	if maxSize <= 0 {
		maxSize = 500
	}
	return &QueryPlanCache{
		cache:   make(map[string]*cachedPlan),
		lru:     newLRUIndex[string](),
		maxSize: maxSize,
	}
}

// Get returns the cached clauses and query type for cypher, or
// (nil, 0, false) on a miss.
func (pc *QueryPlanCache) Get(cypher string) ([]Clause, QueryType, bool) {
	key := normalizeQuery(cypher)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	plan, exists := pc.cache[key]
	if !exists {
		pc.misses++
		return nil, 0, false
	}
	pc.lru.touch(key)
	pc.hits++
	return plan.clauses, plan.queryType, true
}

// Put stores clauses and queryType for cypher. A key already present is
// left as-is (first parse wins; Clear forces a refresh).
func (pc *QueryPlanCache) Put(cypher string, clauses []Clause, queryType QueryType) {
	key := normalizeQuery(cypher)

	pc.mu.Lock()
	defer pc.mu.Unlock()

	if _, exists := pc.cache[key]; exists {
		return
	}
	for pc.lru.len() >= pc.maxSize {
		oldest, ok := pc.lru.oldest()
		if !ok {
			break
		}
		delete(pc.cache, oldest)
		pc.lru.remove(oldest)
	}

	pc.cache[key] = &cachedPlan{clauses: clauses, queryType: queryType}
	pc.lru.pushFront(key)
}

// Stats reports cumulative hit/miss counts and current entry count.
func (pc *QueryPlanCache) Stats() (hits, misses int64, size int) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.hits, pc.misses, len(pc.cache)
}

// Clear empties the plan cache.
func (pc *QueryPlanCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache = make(map[string]*cachedPlan)
	pc.lru.reset()
}

// normalizeQuery collapses all whitespace runs to single spaces so
// equivalent queries differing only in formatting share a cache key.
func normalizeQuery(cypher string) string {
	return strings.Join(strings.Fields(cypher), " ")
}

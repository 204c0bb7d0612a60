package search

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
)

// CacheKey identifies one cached orchestrator call: the strategy used, the
// requested result count, the joined provider profile, and the query
// text — exactly the tuple the specification names.
type CacheKey struct {
	Strategy string
	MaxResults int
	Profile    string
	Query      string
}

// String renders the key as a single comparable/loggable string.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s|%d|%s|%s", k.Strategy, k.MaxResults, k.Profile, k.Query)
}

// NewCacheKey builds a CacheKey from a provider profile slice.
func NewCacheKey(strategy string, maxResults int, profile Profile, query string) CacheKey {
	return CacheKey{Strategy: strategy, MaxResults: maxResults, Profile: strings.Join(profile, ","), Query: query}
}

// Cache is a bounded, thread-safe LRU of orchestrator results keyed by
// CacheKey. The specification leaves eviction policy unspecified beyond
// "no TTL... a bounded LRU is acceptable" (spec.md §9 open question b);
// this is that bounded LRU.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type cacheEntry struct {
	key     string
	results []Result
}

// NewCache constructs an LRU cache holding up to capacity entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 256
	}
	return &Cache{capacity: capacity, entries: make(map[string]*list.Element), order: list.New()}
}

// Get returns a deep copy of the cached results for key, or (nil, false)
// on a miss.
func (c *Cache) Get(_ context.Context, key CacheKey) ([]Result, bool) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	entry := el.Value.(*cacheEntry)
	out := make([]Result, len(entry.results))
	copy(out, entry.results)
	return out, true
}

// Set stores a deep copy of results under key, evicting the least
// recently used entry if the cache is at capacity.
func (c *Cache) Set(_ context.Context, key CacheKey, results []Result) {
	k := key.String()
	stored := make([]Result, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[k]; ok {
		el.Value.(*cacheEntry).results = stored
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{key: k, results: stored})
	c.entries[k] = el
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

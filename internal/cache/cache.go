package cache

import "sync"

// EvictFunc is called for every value that leaves the cache.
type EvictFunc[K comparable, V any] func(key K, value V)

// Cache is a generic thread-safe LRU cache with soft limit.
// When the cache exceeds softLimit, the oldest quarter of the entries is
// evicted.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*lruNode[K, V]
	lru       lruList[K, V]
	softLimit int
	onEvict   EvictFunc[K, V]

	hits, misses, evictions uint64
}

// New creates a new cache with the given soft limit and eviction callback.
// A softLimit of 0 means unlimited. onEvict may be nil.
func New[K comparable, V any](softLimit int, onEvict EvictFunc[K, V]) *Cache[K, V] {
	return &Cache[K, V]{
		entries:   make(map[K]*lruNode[K, V]),
		softLimit: softLimit,
		onEvict:   onEvict,
	}
}

// Get retrieves a value from the cache and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.moveToFront(node)
	return node.value, true
}

// Set stores a value in the cache. A previous value for the key is passed to
// the eviction callback.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	var evicted []*lruNode[K, V]
	if node, ok := c.entries[key]; ok {
		old := *node
		node.value = value
		c.lru.moveToFront(node)
		evicted = append(evicted, &old)
	} else {
		node := &lruNode[K, V]{key: key, value: value}
		c.entries[key] = node
		c.lru.pushFront(node)
		evicted = c.evictOldest(evicted)
	}
	c.mu.Unlock()

	c.notify(evicted)
}

// GetOrCreate returns the cached value or stores the one create returns.
// create runs under the lock and must not use the cache.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	if node, ok := c.entries[key]; ok {
		c.hits++
		c.lru.moveToFront(node)
		c.mu.Unlock()
		return node.value, nil
	}
	c.misses++

	value, err := create()
	if err != nil {
		c.mu.Unlock()
		return value, err
	}
	node := &lruNode[K, V]{key: key, value: value}
	c.entries[key] = node
	c.lru.pushFront(node)
	evicted := c.evictOldest(nil)
	c.mu.Unlock()

	c.notify(evicted)
	return value, nil
}

// Delete removes an entry from the cache and passes it to the eviction
// callback. Returns true if the entry was found.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	node, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
		c.lru.unlink(node)
	}
	c.mu.Unlock()

	if ok {
		c.notify([]*lruNode[K, V]{node})
	}
	return ok
}

// Clear removes all entries, oldest first, passing each to the eviction
// callback.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	var evicted []*lruNode[K, V]
	for node := c.lru.removeOldest(); node != nil; node = c.lru.removeOldest() {
		evicted = append(evicted, node)
	}
	c.entries = make(map[K]*lruNode[K, V])
	c.mu.Unlock()

	c.notify(evicted)
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.softLimit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictOldest removes the least recently used entries down to three
// quarters of the soft limit once the limit is exceeded.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest(evicted []*lruNode[K, V]) []*lruNode[K, V] {
	if c.softLimit <= 0 || len(c.entries) <= c.softLimit {
		return evicted
	}
	targetSize := max(c.softLimit*3/4, 1)
	for len(c.entries) > targetSize {
		node := c.lru.removeOldest()
		delete(c.entries, node.key)
		c.evictions++
		evicted = append(evicted, node)
	}
	return evicted
}

func (c *Cache[K, V]) notify(evicted []*lruNode[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, node := range evicted {
		c.onEvict(node.key, node.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the soft limit.
	Capacity int
	// Hits is the number of lookups that found an entry.
	Hits uint64
	// Misses is the number of lookups that did not.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries dropped for the soft limit.
	Evictions uint64
}

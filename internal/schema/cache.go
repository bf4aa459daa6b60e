package schema

import (
	"container/list"
	"sync"
)

// LRUCache is a thread-safe LRU cache keyed by index and version.
type LRUCache[V any] struct {
	mu       sync.Mutex
	capacity int
	cache    map[Key]*list.Element
	order    *list.List
}

type cacheEntry[V any] struct {
	key   Key
	value V
}

// NewLRUCache creates a new LRU cache with the given capacity.
func NewLRUCache[V any](capacity int) *LRUCache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache[V]{
		capacity: capacity,
		cache:    make(map[Key]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached value and marks it most recently used.
func (c *LRUCache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[key]
	if !exists {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry[V]).value, true
}

// Put adds a value, evicting the least recently used entry if full.
func (c *LRUCache[V]) Put(key Key, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry[V]).value = value
		return
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			delete(c.cache, oldest.Value.(*cacheEntry[V]).key)
			c.order.Remove(oldest)
		}
	}

	c.cache[key] = c.order.PushFront(&cacheEntry[V]{key: key, value: value})
}

// Invalidate removes a key from the cache.
func (c *LRUCache[V]) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		delete(c.cache, key)
		c.order.Remove(elem)
	}
}

// Len returns the number of cached entries.
func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes all entries from the cache.
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[Key]*list.Element)
	c.order = list.New()
}

package utils

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a bounded, thread-safe cache with per-entry expiry. The least
// recently used entry is evicted once Capacity is exceeded.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
}

type lruEntry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// NewLRU creates a cache holding at most capacity entries for ttl each.
// A zero ttl disables expiry.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns the cached value and whether it was present and fresh.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*lruEntry[V])
	if c.ttl > 0 && c.now().After(entry.expires) {
		c.removeElement(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return entry.value, true
}

// Put inserts or refreshes a value.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*lruEntry[V])
		entry.value = value
		entry.expires = expires
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&lruEntry[V]{key: key, value: value, expires: expires})
	c.items[key] = el
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*lruEntry[V]).key)
}

package cache

import (
	"sort"
	"sync"
	"time"
)

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is an in-process map with per-entry expiry and an optional item cap.
// Expired entries are dropped lazily on read and swept on write; when the cap is
// reached the entries closest to expiry are evicted first. The lock is never held
// while callers compute values.
type TTLCache[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]ttlEntry[V]
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

// NewTTLCache creates a cache with a default ttl. maxItems <= 0 means unbounded.
func NewTTLCache[K comparable, V any](ttl time.Duration, maxItems int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		entries:  make(map[K]ttlEntry[V]),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (c *TTLCache[K, V]) WithClock(now func() time.Time) *TTLCache[K, V] {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	now := c.now()
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if now.After(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[key]; still && now.After(current.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.pruneLocked(now, key)
	c.entries[key] = ttlEntry[V]{value: value, expiresAt: now.Add(ttl)}
}

func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// pruneLocked drops expired entries and, if incoming would overflow the cap,
// the soonest-expiring ones. Must be called with the write lock held.
func (c *TTLCache[K, V]) pruneLocked(now time.Time, incoming K) {
	for key, entry := range c.entries {
		if !entry.expiresAt.After(now) {
			delete(c.entries, key)
		}
	}

	if c.maxItems <= 0 {
		return
	}
	size := len(c.entries)
	if _, exists := c.entries[incoming]; !exists {
		size++
	}
	overflow := size - c.maxItems
	if overflow <= 0 {
		return
	}

	keys := make([]K, 0, len(c.entries))
	for key := range c.entries {
		if key != incoming {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].expiresAt.Before(c.entries[keys[j]].expiresAt)
	})
	for i := 0; i < overflow && i < len(keys); i++ {
		delete(c.entries, keys[i])
	}
}

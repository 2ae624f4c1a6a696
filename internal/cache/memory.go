package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache implements an L1 in-memory cache with LRU eviction.
type MemoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats CacheStats
}

// memoryCacheEntry represents an entry in the memory cache
type memoryCacheEntry struct {
	key   string
	value []byte
	size  int64
}

// NewMemoryCache creates a new memory cache with the specified capacity in bytes.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats: CacheStats{
			Capacity: capacity,
		},
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	return elem.Value.(*memoryCacheEntry).value, true
}

// Put stores a value in the cache, evicting least recently used entries.
func (c *MemoryCache) Put(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))
	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*memoryCacheEntry)
		c.size += valueSize - entry.size
		entry.value = value
		entry.size = valueSize
		c.eviction.MoveToFront(elem)
	} else {
		elem := c.eviction.PushFront(&memoryCacheEntry{key: key, value: value, size: valueSize})
		c.items[key] = elem
		c.size += valueSize
	}

	for c.size > c.capacity {
		c.evictOldest()
	}
	return nil
}

// Delete removes an entry from the cache.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
	return nil
}

// Stats returns a snapshot of cache statistics.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	return stats
}

// evictOldest removes the least recently used entry. Caller holds the lock.
func (c *MemoryCache) evictOldest() {
	elem := c.eviction.Back()
	if elem == nil {
		return
	}
	c.removeElement(elem)
	c.stats.Evictions++
}

func (c *MemoryCache) removeElement(elem *list.Element) {
	entry := c.eviction.Remove(elem).(*memoryCacheEntry)
	delete(c.items, entry.key)
	c.size -= entry.size
}

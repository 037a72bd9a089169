package dictionary

import (
	"bytes"
	"sync"

	"github.com/zeebo/xxh3"
)

// defaultCacheCapacity bounds the term cache before it is wholesale
// cleared; this is a simple bounded cache, not an LRU, since the
// dictionary's working set (hot term->ID mappings during a bulk load) is
// the thing worth caching, not long-tail precision eviction.
const defaultCacheCapacity = 1 << 16

type cacheEntry struct {
	key []byte
	id  uint64
}

// termCache is a small bounded read cache from a serialized term's bytes
// to its allocated ID, keyed by an xxh3 hash bucket with a linear
// collision chain. It exists purely to skip a KVE round trip for terms
// that were recently allocated or looked up; a hash collision only costs
// an extra chain comparison; it never returns a wrong answer, because
// every candidate is compared against the full key before being trusted.
type termCache struct {
	mu       sync.RWMutex
	buckets  map[uint64][]cacheEntry
	count    int
	capacity int
}

func newTermCache(capacity int) *termCache {
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &termCache{buckets: make(map[uint64][]cacheEntry), capacity: capacity}
}

func (c *termCache) get(key []byte) (uint64, bool) {
	h := xxh3.Hash(key)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.buckets[h] {
		if bytes.Equal(e.key, key) {
			return e.id, true
		}
	}
	return 0, false
}

func (c *termCache) put(key []byte, id uint64) {
	h := xxh3.Hash(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.count >= c.capacity {
		c.buckets = make(map[uint64][]cacheEntry)
		c.count = 0
	}
	for _, e := range c.buckets[h] {
		if bytes.Equal(e.key, key) {
			return
		}
	}
	stored := make([]byte, len(key))
	copy(stored, key)
	c.buckets[h] = append(c.buckets[h], cacheEntry{key: stored, id: id})
	c.count++
}

// Package cache memoizes view computations keyed by the content of the
// dataset they were computed from and their parameters.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spaolacci/murmur3"
)

// DefaultSize is the number of results kept when no size is configured.
const DefaultSize = 256

// Key identifies one computation.
type Key [16]byte

// String returns the key in hex.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// KeyOf digests the parts into a Key. Each part is length-prefixed, so
// ("ab", "c") and ("a", "bc") produce different keys.
func KeyOf(parts ...string) Key {
	h := murmur3.New128()
	var size [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(size[:], uint64(len(p)))
		_, _ = h.Write(size[:])
		_, _ = h.Write([]byte(p))
	}
	h1, h2 := h.Sum128()

	var k Key
	binary.BigEndian.PutUint64(k[:8], h1)
	binary.BigEndian.PutUint64(k[8:], h2)
	return k
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache is a bounded LRU of computed values. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[Key, any]
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// New creates a cache holding at most size values. A size of 0 or less
// uses DefaultSize.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, any](size)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Get returns the value stored under key.
func (c *Cache) Get(key Key) (any, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores a value under key, evicting the least recently used entry when
// the cache is full.
func (c *Cache) Add(key Key, value any) {
	c.entries.Add(key, value)
}

// Purge drops every entry. Hit and miss counters are kept.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns the current entry count and hit ratio counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Memo returns the value cached under key, computing and storing it on a
// miss. Errors are returned without being cached.
func Memo[T any](c *Cache, key Key, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Add(key, v)
	return v, nil
}

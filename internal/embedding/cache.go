// Package embedding provides the content-hash-keyed embedding cache and
// batched embedding generation over the provider adapter.
package embedding

import (
	"context"
	"log"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/skylane-ai/aerocontext/internal/cache"
)

const (
	// DefaultTTL keeps embeddings for a week; a content hash always maps to
	// the same vector, so only expiry removes an entry.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultMaxEntries bounds cache memory via LRU eviction.
	DefaultMaxEntries = 10000
)

// ComputeFunc produces an embedding for text on a cache miss.
type ComputeFunc func(ctx context.Context, text string) ([]float32, error)

type entry struct {
	vector    []float32
	createdAt time.Time
}

// Cache maps the stable hash of input text to its embedding vector. Lookup is
// whitespace-sensitive; no normalization is applied before hashing. Entries
// expire lazily on read after the TTL; the LRU bound handles memory pressure.
type Cache struct {
	entries *lru.Cache[string, entry]
	ttl     time.Duration
	clock   cache.Clock
}

// NewCache creates an embedding cache. Zero values fall back to defaults.
func NewCache(maxEntries int, ttl time.Duration, clock cache.Clock) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = cache.SystemClock()
	}
	entries, err := lru.New[string, entry](maxEntries)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above.
		entries, _ = lru.New[string, entry](DefaultMaxEntries)
	}
	return &Cache{
		entries: entries,
		ttl:     ttl,
		clock:   clock,
	}
}

// GetOrCompute returns the cached vector for text, invoking computeFn only on
// a miss or after expiry. Concurrent callers for the same uncached text may
// both compute; the insert is last-write-wins, which is safe because the
// result is a pure function of the text.
func (c *Cache) GetOrCompute(ctx context.Context, text string, computeFn ComputeFunc) ([]float32, error) {
	key := cache.ContentHash(text)

	if vec, ok := c.lookup(key); ok {
		return vec, nil
	}

	vec, err := computeFn(ctx, text)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, entry{vector: vec, createdAt: c.clock.Now()})
	return copyVector(vec), nil
}

// Get returns the cached vector for text without computing on a miss.
func (c *Cache) Get(text string) ([]float32, bool) {
	return c.lookup(cache.ContentHash(text))
}

// Len returns the number of cached vectors, counting expired entries not yet
// evicted by a read.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Clear drops every cached vector.
func (c *Cache) Clear() {
	c.entries.Purge()
}

func (c *Cache) lookup(key string) ([]float32, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.clock.Now().Sub(e.createdAt) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	if len(e.vector) == 0 {
		// Malformed cached value: treat as a miss, never fail the lookup.
		log.Printf("embedding cache: dropping malformed entry for hash %s", key)
		c.entries.Remove(key)
		return nil, false
	}
	return copyVector(e.vector), true
}

// copyVector guards cached vectors against caller mutation.
func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

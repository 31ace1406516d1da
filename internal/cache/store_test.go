package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_GetSet(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](30*time.Minute, clock)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("k", "v")
	got, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestStore_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[int](30*time.Minute, clock)

	store.Set("k", 42)

	clock.Advance(29 * time.Minute)
	_, ok := store.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = store.Get("k")
	assert.False(t, ok)
	// Expired entry is evicted by the read.
	assert.Equal(t, 0, store.Len())
}

func TestStore_OverwriteRefreshesTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Hour, clock)

	store.Set("k", "old")
	clock.Advance(50 * time.Minute)
	store.Set("k", "new")
	clock.Advance(30 * time.Minute)

	got, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestStore_SetWithTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewStore[string](time.Hour, clock)

	store.SetWithTTL("short", "v", time.Minute)
	clock.Advance(2 * time.Minute)

	_, ok := store.Get("short")
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	store := NewStore[string](time.Hour, newFakeClock())
	store.Set("a", "1")
	store.Set("b", "2")

	store.Clear()

	assert.Equal(t, 0, store.Len())
	_, ok := store.Get("a")
	assert.False(t, ok)
}

func TestStore_ConcurrentWritersSameKey(t *testing.T) {
	store := NewStore[int](time.Hour, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Set("k", n)
			store.Get("k")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, store.Len())
}

// Package cache implements the process-local multi-tier query/response cache:
// generic TTL stores, canonical cache-key hashing, and a near-duplicate query
// detector over recent history. Entries expire lazily at lookup time; there is
// no background sweep.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached payload with its creation time and TTL.
type Entry[T any] struct {
	Payload   T
	CreatedAt time.Time
	TTL       time.Duration
}

// Valid reports whether the entry is still live at the given instant.
func (e Entry[T]) Valid(now time.Time) bool {
	return now.Sub(e.CreatedAt) < e.TTL
}

// Store is a keyed TTL cache. Writes to the same key are atomic
// (last-write-wins); expiry is evaluated lazily on read.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	clock   Clock
}

// NewStore creates a Store with the given default TTL.
func NewStore[T any](ttl time.Duration, clock Clock) *Store[T] {
	if clock == nil {
		clock = SystemClock()
	}
	return &Store[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		clock:   clock,
	}
}

// Get returns the cached payload for key if present and unexpired.
// An expired entry is removed on the way out.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if !entry.Valid(s.clock.Now()) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, still := s.entries[key]; still && !current.Valid(s.clock.Now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return zero, false
	}
	return entry.Payload, true
}

// Set stores payload under key with the store's default TTL.
func (s *Store[T]) Set(key string, payload T) {
	s.SetWithTTL(key, payload, s.ttl)
}

// SetWithTTL stores payload under key with an explicit TTL.
func (s *Store[T]) SetWithTTL(key string, payload T, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{
		Payload:   payload,
		CreatedAt: s.clock.Now(),
		TTL:       ttl,
	}
	s.mu.Unlock()
}

// Delete removes a single key.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Clear drops every entry.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry[T])
	s.mu.Unlock()
}

// Len returns the number of entries, counting expired ones not yet
// evicted by a read.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

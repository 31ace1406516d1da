package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// MemoryStore is a brute-force in-memory CorpusStore used when no database is
// configured and in tests. Semantic search is cosine over all entries;
// lexical rank is normalized query-token overlap.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []memEntry
}

type memEntry struct {
	hit       Hit
	embedding []float32
	tokens    map[string]struct{}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Add indexes an entry. Entries with an existing ID are replaced.
func (s *MemoryStore) Add(id, text string, metadata SnippetMetadata, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memEntry{
		hit:       Hit{ID: id, Text: text, Metadata: metadata},
		embedding: embedding,
		tokens:    tokenize(text),
	}
	for i := range s.entries {
		if s.entries[i].hit.ID == id {
			s.entries[i] = entry
			return
		}
	}
	s.entries = append(s.entries, entry)
}

// Remove drops all entries belonging to the given parent or entry ID prefix.
func (s *MemoryStore) Remove(idPrefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !strings.HasPrefix(e.hit.ID, idPrefix) {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Len returns the number of indexed entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.entries))
	for _, e := range s.entries {
		h := e.hit
		h.Score = CosineSimilarity(embedding, e.embedding)
		hits = append(hits, h)
	}
	return topHits(hits, limit), nil
}

func (s *MemoryStore) SearchLexical(ctx context.Context, query string, limit int) ([]Hit, error) {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.entries))
	for _, e := range s.entries {
		matched := 0
		for tok := range queryTokens {
			if _, ok := e.tokens[tok]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		h := e.hit
		h.Score = float64(matched) / float64(len(queryTokens))
		hits = append(hits, h)
	}
	return topHits(hits, limit), nil
}

func topHits(hits []Hit, limit int) []Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

var lexicalStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "is": {}, "are": {}, "for": {}, "what": {}, "when": {},
	"with": {}, "shall": {}, "be": {},
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, stop := lexicalStopwords[field]; stop {
			continue
		}
		if len(field) < 2 {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
}

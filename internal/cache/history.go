package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
)

const (
	// DefaultHistorySize bounds the near-duplicate query history.
	DefaultHistorySize = 100
	// DefaultSimilarityCutoff is the normalized edit-distance similarity a
	// history entry must exceed to count as a near duplicate.
	DefaultSimilarityCutoff = 0.8
	// DefaultHistoryWindow is how long a history entry stays eligible.
	DefaultHistoryWindow = time.Hour
)

// HistoryEntry records a previously answered query. Used only for
// near-duplicate detection, never for authoritative lookup.
type HistoryEntry struct {
	Query     string
	Response  string
	Timestamp time.Time
}

// QueryHistory is a bounded most-recent-first ring of answered queries with
// fuzzy matching over normalized edit distance.
type QueryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
	size    int
	cutoff  float64
	window  time.Duration
	clock   Clock
}

// NewQueryHistory creates a QueryHistory. Zero values fall back to defaults.
func NewQueryHistory(size int, cutoff float64, window time.Duration, clock Clock) *QueryHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	if cutoff <= 0 {
		cutoff = DefaultSimilarityCutoff
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &QueryHistory{
		entries: make([]HistoryEntry, 0, size),
		size:    size,
		cutoff:  cutoff,
		window:  window,
		clock:   clock,
	}
}

// Record prepends a query/response pair, evicting the oldest entry once the
// ring is full.
func (h *QueryHistory) Record(query, response string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{
		Query:     query,
		Response:  response,
		Timestamp: h.clock.Now(),
	}
	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > h.size {
		h.entries = h.entries[:h.size]
	}
}

// FindSimilar scans most-recent-first for a history entry whose normalized
// similarity to query exceeds the cutoff and which is still inside the time
// window. Returns the cached response on a hit.
func (h *QueryHistory) FindSimilar(query string) (string, bool) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return "", false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.clock.Now()
	for _, entry := range h.entries {
		if now.Sub(entry.Timestamp) >= h.window {
			continue
		}
		if Similarity(normalized, normalizeQuery(entry.Query)) > h.cutoff {
			return entry.Response, true
		}
	}
	return "", false
}

// Len returns the number of retained history entries.
func (h *QueryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear drops the history.
func (h *QueryHistory) Clear() {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()
}

// Similarity computes normalized edit-distance similarity in [0,1]:
// (maxLen - levenshtein) / maxLen. Two equal strings score 1.0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

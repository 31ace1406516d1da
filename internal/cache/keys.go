package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// SearchKey derives a cache key for a search lookup. Fields are serialized in
// a fixed order so logically identical inputs always hash to the same key.
func SearchKey(query string, threshold float64, limit int, vectorOnly bool) string {
	canonical := fmt.Sprintf("q=%s|t=%.4f|n=%d|v=%t", strings.TrimSpace(query), threshold, limit, vectorOnly)
	return hashKey("search", canonical)
}

// ResponseKey derives a cache key for a generated response from the
// conversation text and the document id/similarity pairs that grounded it.
// Document references are sorted by id before hashing; input order never
// changes the key.
func ResponseKey(conversation string, docs map[string]float64) string {
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(conversation))
	for _, id := range ids {
		fmt.Fprintf(&b, "|%s=%.4f", id, docs[id])
	}
	return hashKey("response", b.String())
}

// DocumentSetKey derives a cache key for a processed document set from the
// sorted document ids and their content hashes.
func DocumentSetKey(contentHashes map[string]string) string {
	ids := make([]string, 0, len(contentHashes))
	for id := range contentHashes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s=%s|", id, contentHashes[id])
	}
	return hashKey("docset", b.String())
}

// ContentHash returns the stable hex hash of the exact input text.
// Whitespace-sensitive: no normalization is applied.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func hashKey(tier, canonical string) string {
	sum := sha256.Sum256([]byte(tier + ":" + canonical))
	return hex.EncodeToString(sum[:])
}

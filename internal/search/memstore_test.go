package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	// Opposite vectors clamp to 0 rather than going negative.
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}))
	// Mismatched lengths and zero vectors score 0.
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
}

func TestMemoryStore_SearchSemantic(t *testing.T) {
	store := NewMemoryStore()
	store.Add("near", "wake turbulence separation", SnippetMetadata{ID: "near"}, []float32{1, 0, 0})
	store.Add("far", "unrelated content", SnippetMetadata{ID: "far"}, []float32{0, 1, 0})

	hits, err := store.SearchSemantic(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "near", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.InDelta(t, 0.0, hits[1].Score, 1e-9)
}

func TestMemoryStore_SearchLexical(t *testing.T) {
	store := NewMemoryStore()
	store.Add("wt", "Apply wake turbulence separation behind heavy aircraft", SnippetMetadata{ID: "wt"}, nil)
	store.Add("ri", "Report runway incursion events immediately", SnippetMetadata{ID: "ri"}, nil)

	hits, err := store.SearchLexical(context.Background(), "wake turbulence separation", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "wt", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestMemoryStore_SearchLexical_PartialMatch(t *testing.T) {
	store := NewMemoryStore()
	store.Add("a", "wake turbulence categories", SnippetMetadata{ID: "a"}, nil)

	hits, err := store.SearchLexical(context.Background(), "wake vortex strength", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	// One of three query tokens matched.
	assert.InDelta(t, 1.0/3.0, hits[0].Score, 1e-9)
}

func TestMemoryStore_SearchLexical_StopwordsOnly(t *testing.T) {
	store := NewMemoryStore()
	store.Add("a", "some content", SnippetMetadata{ID: "a"}, nil)

	hits, err := store.SearchLexical(context.Background(), "what is the", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStore_AddReplacesByID(t *testing.T) {
	store := NewMemoryStore()
	store.Add("a", "old text", SnippetMetadata{ID: "a"}, []float32{1})
	store.Add("a", "new text", SnippetMetadata{ID: "a"}, []float32{1})

	assert.Equal(t, 1, store.Len())

	hits, err := store.SearchSemantic(context.Background(), []float32{1}, 10)
	require.NoError(t, err)
	assert.Equal(t, "new text", hits[0].Text)
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	store.Add("doc-1:0", "chunk one", SnippetMetadata{}, nil)
	store.Add("doc-1:1", "chunk two", SnippetMetadata{}, nil)
	store.Add("doc-2:0", "other doc", SnippetMetadata{}, nil)

	store.Remove("doc-1")

	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_WithEngine_EndToEnd(t *testing.T) {
	store := NewMemoryStore()
	store.Add("wt", "Separate aircraft behind a heavy by the wake turbulence minima.",
		SnippetMetadata{ID: "wt", Title: "Wake Turbulence"}, []float32{0.9, 0.1, 0})
	store.Add("lex", "Wake turbulence advisories for VFR aircraft.",
		SnippetMetadata{ID: "lex", Title: "Advisories"}, []float32{0, 0, 1})

	engine := NewEngine(store)
	results := engine.Search(context.Background(), []float32{1, 0, 0}, "minimum wake turbulence separation", 10, 0.7)

	require.NotEmpty(t, results)
	assert.Equal(t, "wt", results[0].Metadata.ID)
}

// Package search implements the hybrid vector+lexical ranking engine over the
// procedures corpus, including the automatic threshold relaxation ladder and a
// pure-vector fallback mode.
package search

import "context"

// SnippetMetadata identifies where a result snippet came from.
type SnippetMetadata struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	ChapterNumber string `json:"chapter_number"`
	SectionNumber string `json:"section_number"`
	URL           string `json:"url,omitempty"`
}

// Result is a ranked snippet returned to the assistant orchestrator.
// Similarity holds the fused score in hybrid mode or the raw vector
// similarity in pure-vector mode. Ephemeral, never persisted.
type Result struct {
	Text         string          `json:"text"`
	Metadata     SnippetMetadata `json:"metadata"`
	Similarity   float64         `json:"similarity"`
	VectorScore  float64         `json:"vector_score"`
	LexicalScore float64         `json:"lexical_score"`
}

// Hit is a single candidate from one retrieval leg of a corpus store.
type Hit struct {
	ID       string
	Text     string
	Metadata SnippetMetadata
	Score    float64
}

// CorpusStore is the backend the engine ranks over. Both legs return at most
// limit candidates ordered by their own score descending. Scores are expected
// in [0,1].
type CorpusStore interface {
	SearchSemantic(ctx context.Context, embedding []float32, limit int) ([]Hit, error)
	SearchLexical(ctx context.Context, query string, limit int) ([]Hit, error)
}

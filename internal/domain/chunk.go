package domain

import "time"

// MinChunkChars is the minimum content length for an emitted chunk. Sections
// shorter than this are dropped; a document that produces no qualifying
// sections is emitted as a single unchunked chunk instead.
const MinChunkChars = 200

// Chunk is a topic-focused segment of a KnowledgeDocument produced by the
// semantic chunker. ChunkIndex is the zero-based ordinal within the parent
// and TotalChunks is constant across siblings.
type Chunk struct {
	ID            string
	ParentID      string
	Title         string
	Content       string
	Topic         string
	ProcedureType string
	Keywords      []string
	ChunkIndex    int
	TotalChunks   int
	Embedding     []float32
	Metadata      DocumentMetadata
	ParentTitle   string
	Chunked       bool
	CreatedAt     time.Time
}

// Size returns the chunk content length in characters.
func (c *Chunk) Size() int {
	return len(c.Content)
}

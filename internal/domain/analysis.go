package domain

// EmbeddingQuality classifies how topically focused a document is.
type EmbeddingQuality string

const (
	QualityFocused EmbeddingQuality = "focused"
	QualityMixed   EmbeddingQuality = "mixed"
	QualityDiluted EmbeddingQuality = "diluted"
)

// ChunkingPriority orders the queue of documents waiting to be split.
type ChunkingPriority string

const (
	PriorityLow    ChunkingPriority = "low"
	PriorityMedium ChunkingPriority = "medium"
	PriorityHigh   ChunkingPriority = "high"
)

// DocumentAnalysis is the quality analyzer's verdict on a single document.
type DocumentAnalysis struct {
	DocumentID    string
	Title         string
	Size          int
	TopicCount    int
	MainTopics    []string
	Density       float64
	Quality       EmbeddingQuality
	NeedsChunking bool
	Priority      ChunkingPriority
}

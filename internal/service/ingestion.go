package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/embedding"
	"github.com/skylane-ai/aerocontext/internal/pagination"
	"github.com/skylane-ai/aerocontext/internal/telemetry"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.KnowledgeDocument) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeDocument, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.KnowledgeDocument], error)
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// CorpusRepositoryInterface defines the repository interface for chunk persistence
type CorpusRepositoryInterface interface {
	ReplaceChunks(ctx context.Context, parentID string, chunks []domain.Chunk) error
	ListByParent(ctx context.Context, parentID string) ([]domain.Chunk, error)
	ListIndexed(ctx context.Context) ([]domain.Chunk, error)
	DocumentContentHashes(ctx context.Context) (map[string]string, error)
}

// IngestJobRepositoryInterface defines the repository interface for ingest job persistence
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error
	Requeue(ctx context.Context, id string) error
}

// DocumentAnalyzer produces a quality verdict for a document.
type DocumentAnalyzer interface {
	Analyze(doc *domain.KnowledgeDocument) domain.DocumentAnalysis
}

// DocumentChunker splits a document into topic sections, or wraps it whole.
type DocumentChunker interface {
	Chunk(doc *domain.KnowledgeDocument) []domain.Chunk
	Single(doc *domain.KnowledgeDocument) domain.Chunk
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestionService owns the document pipeline: intake, quality analysis,
// chunking, batch embedding, and corpus indexing.
type IngestionService struct {
	documents  DocumentRepositoryInterface
	corpus     CorpusRepositoryInterface
	jobs       IngestJobRepositoryInterface
	txRunner   TxRunner
	analyzer   DocumentAnalyzer
	chunker    DocumentChunker
	embedder   EmbeddingClient
	embedCache *embedding.Cache
	caches     *cache.Service
	batchCfg   embedding.BatchConfig
	uuidGen    UUIDGenerator
}

type IngestionConfig struct {
	Documents  DocumentRepositoryInterface
	Corpus     CorpusRepositoryInterface
	Jobs       IngestJobRepositoryInterface
	TxRunner   TxRunner
	Analyzer   DocumentAnalyzer
	Chunker    DocumentChunker
	Embedder   EmbeddingClient
	EmbedCache *embedding.Cache
	Caches     *cache.Service
	Batch      embedding.BatchConfig
}

func NewIngestionService(cfg IngestionConfig) *IngestionService {
	return &IngestionService{
		documents:  cfg.Documents,
		corpus:     cfg.Corpus,
		jobs:       cfg.Jobs,
		txRunner:   cfg.TxRunner,
		analyzer:   cfg.Analyzer,
		chunker:    cfg.Chunker,
		embedder:   cfg.Embedder,
		embedCache: cfg.EmbedCache,
		caches:     cfg.Caches,
		batchCfg:   cfg.Batch,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// IngestInput represents the input for ingesting a document
type IngestInput struct {
	ID          string
	DisplayName string
	Content     string
	Summary     string
	Tags        []string
	Metadata    domain.DocumentMetadata
}

// Ingest stores a new document and queues it for processing. The document and
// its job are created in one transaction so a crash cannot leave an orphan.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*domain.KnowledgeDocument, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		DocumentID: input.ID,
		Operation:  "ingest",
	})
	defer span.End()

	now := time.Now().UTC()
	doc := &domain.KnowledgeDocument{
		ID:          input.ID,
		DisplayName: input.DisplayName,
		Content:     input.Content,
		Summary:     input.Summary,
		Tags:        input.Tags,
		Metadata:    input.Metadata,
		Status:      domain.ProcessingStatusPending,
		IngestedAt:  now,
		UpdatedAt:   now,
	}
	if doc.ID == "" {
		doc.ID = s.uuidGen.NewString()
	}
	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	exists, err := s.documents.Exists(ctx, doc.ID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if exists {
		return nil, domain.ErrDocumentAlreadyExists
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return err
		}
		return repos.IngestJobs().Create(ctx, &domain.IngestJob{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			Status:     domain.IngestJobStatusPending,
			CreatedAt:  now,
		})
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

// Get returns a stored document.
func (s *IngestionService) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	return s.documents.GetByID(ctx, id)
}

// List returns a cursor-paginated page of documents, newest first.
func (s *IngestionService) List(ctx context.Context, cursorStr string, limit int) (*pagination.PageResult[*domain.KnowledgeDocument], error) {
	cursor, err := pagination.DecodeCursor(cursorStr)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}
	return s.documents.ListWithCursor(ctx, cursor, limit)
}

// Delete removes a document and, via cascade, its chunks.
func (s *IngestionService) Delete(ctx context.Context, id string) error {
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	s.caches.DocumentSets.Clear()
	return nil
}

// Analyze runs the quality analyzer on a stored document without touching the
// corpus.
func (s *IngestionService) Analyze(ctx context.Context, id string) (*domain.DocumentAnalysis, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	analysis := s.analyzer.Analyze(doc)
	return &analysis, nil
}

// Reprocess resets a document to pending and queues a fresh ingest job.
func (s *IngestionService) Reprocess(ctx context.Context, id string) error {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().UpdateStatus(ctx, doc.ID, domain.ProcessingStatusPending); err != nil {
			return err
		}
		return repos.IngestJobs().Create(ctx, &domain.IngestJob{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			Status:     domain.IngestJobStatusPending,
			CreatedAt:  time.Now().UTC(),
		})
	})
}

// Process runs the pipeline for one document: analyze, chunk when the
// analyzer asks for it, embed every chunk, and swap the chunks into the
// corpus atomically. Called by the ingest worker.
func (s *IngestionService) Process(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Process", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "process",
	})
	defer span.End()

	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.documents.UpdateStatus(ctx, doc.ID, domain.ProcessingStatusProcessing); err != nil {
		return err
	}

	analysis := s.analyzer.Analyze(doc)

	var chunks []domain.Chunk
	if analysis.NeedsChunking {
		chunks = s.chunker.Chunk(doc)
	} else {
		chunks = []domain.Chunk{s.chunker.Single(doc)}
	}
	log.Printf("ingest: document %s analyzed (quality=%s priority=%s chunks=%d)",
		doc.ID, analysis.Quality, analysis.Priority, len(chunks))

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := s.embedCache.GenerateBatch(ctx, texts, s.embedder.GenerateEmbedding, s.batchCfg)
	if err != nil {
		span.SetError(err)
		if statusErr := s.documents.UpdateStatus(ctx, doc.ID, domain.ProcessingStatusFailed); statusErr != nil {
			log.Printf("ingest: failed to mark document %s failed: %v", doc.ID, statusErr)
		}
		return err
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Corpus().ReplaceChunks(ctx, doc.ID, chunks); err != nil {
			return err
		}
		return repos.Documents().UpdateStatus(ctx, doc.ID, domain.ProcessingStatusIndexed)
	})
	if err != nil {
		span.SetError(err)
		return err
	}

	s.caches.DocumentSets.Clear()
	return nil
}

// Chunks returns the indexed chunks of one document in order.
func (s *IngestionService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.documents.GetByID(ctx, documentID); err != nil {
		return nil, err
	}
	return s.corpus.ListByParent(ctx, documentID)
}

// DocumentSet returns every indexed chunk, cached under a key derived from
// the content hashes of the indexed documents. Any content change produces a
// different key, so stale sets can never be served.
func (s *IngestionService) DocumentSet(ctx context.Context) ([]domain.Chunk, error) {
	hashes, err := s.corpus.DocumentContentHashes(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.DocumentSetKey(hashes)
	if cached, ok := s.caches.DocumentSets.Get(key); ok {
		return cached, nil
	}

	chunks, err := s.corpus.ListIndexed(ctx)
	if err != nil {
		return nil, err
	}
	s.caches.DocumentSets.Set(key, chunks)
	return chunks, nil
}

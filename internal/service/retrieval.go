package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/embedding"
	"github.com/skylane-ai/aerocontext/internal/search"
	"github.com/skylane-ai/aerocontext/internal/telemetry"
)

// EmbeddingClient generates a vector for a single text.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// SearchEngine is the ranking engine the retrieval service drives.
type SearchEngine interface {
	Search(ctx context.Context, embedding []float32, query string, limit int, threshold float64) []search.Result
	SearchVector(ctx context.Context, embedding []float32, limit int, threshold float64) []search.Result
}

// RetrievalService answers search requests: query embedding (cached by content
// hash), hybrid ranking, and the search-tier result cache.
type RetrievalService struct {
	engine     SearchEngine
	embedder   EmbeddingClient
	embedCache *embedding.Cache
	caches     *cache.Service

	defaultLimit     int
	defaultThreshold float64
	vectorThreshold  float64
	timeout          time.Duration
}

// RetrievalConfig carries the tunable retrieval defaults.
type RetrievalConfig struct {
	DefaultLimit     int
	DefaultThreshold float64
	VectorThreshold  float64
	Timeout          time.Duration
}

func NewRetrievalService(
	engine SearchEngine,
	embedder EmbeddingClient,
	embedCache *embedding.Cache,
	caches *cache.Service,
	cfg RetrievalConfig,
) *RetrievalService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = search.DefaultLimit
	}
	if cfg.VectorThreshold == 0 {
		cfg.VectorThreshold = search.DefaultVectorThreshold
	}
	return &RetrievalService{
		engine:           engine,
		embedder:         embedder,
		embedCache:       embedCache,
		caches:           caches,
		defaultLimit:     cfg.DefaultLimit,
		defaultThreshold: cfg.DefaultThreshold,
		vectorThreshold:  cfg.VectorThreshold,
		timeout:          cfg.Timeout,
	}
}

// SearchInput represents a single retrieval request.
type SearchInput struct {
	Query      string
	Limit      int
	Threshold  float64
	VectorOnly bool
}

// SearchOutput carries the ranked results and whether they came from cache.
type SearchOutput struct {
	Results []search.Result
	Cached  bool
}

// Search runs the full retrieval flow: search-cache lookup, query embedding,
// hybrid ranking, cache fill. Identical requests within the search TTL are
// served from cache without touching the embedding provider.
func (s *RetrievalService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		Operation: "search",
	})
	defer span.End()

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if input.Limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	if input.Threshold < 0 || input.Threshold > 1 {
		return nil, domain.ErrInvalidThreshold
	}

	limit := input.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	threshold := input.Threshold
	if threshold == 0 {
		if input.VectorOnly {
			threshold = s.vectorThreshold
		} else {
			threshold = s.defaultThreshold
		}
	}

	key := cache.SearchKey(query, threshold, limit, input.VectorOnly)
	if cached, ok := s.caches.Searches.Get(key); ok {
		return &SearchOutput{Results: cached, Cached: true}, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vec, err := s.embedCache.GetOrCompute(ctx, query, s.embedder.GenerateEmbedding)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var results []search.Result
	if input.VectorOnly {
		results = s.engine.SearchVector(ctx, vec, limit, threshold)
	} else {
		results = s.engine.Search(ctx, vec, query, limit, threshold)
	}

	s.caches.Searches.Set(key, results)
	return &SearchOutput{Results: results}, nil
}

// LookupResponse checks the response tier for a previously generated answer.
// An exact key match wins; otherwise a near-duplicate of the query recorded
// within the history window is reused.
func (s *RetrievalService) LookupResponse(query string, docs map[string]float64) (string, bool) {
	key := cache.ResponseKey(query, docs)
	if resp, ok := s.caches.Responses.Get(key); ok {
		return resp, true
	}
	if resp, ok := s.caches.History.FindSimilar(query); ok {
		log.Printf("cache: near-duplicate query matched, reusing response")
		return resp, true
	}
	return "", false
}

// StoreResponse caches a generated answer and records the query in the
// near-duplicate history.
func (s *RetrievalService) StoreResponse(query string, docs map[string]float64, response string) {
	key := cache.ResponseKey(query, docs)
	s.caches.Responses.Set(key, response)
	s.caches.History.Record(query, response)
}

// CacheStats exposes tier sizes for the admin surface.
func (s *RetrievalService) CacheStats() cache.Stats {
	return s.caches.Stats()
}

// ClearCaches drops every retrieval cache tier, including cached query
// embeddings.
func (s *RetrievalService) ClearCaches() {
	s.caches.ClearAll()
	s.embedCache.Clear()
}

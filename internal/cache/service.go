package cache

import (
	"time"

	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/search"
)

// Default TTLs for the cache tiers.
const (
	DefaultSearchTTL      = 30 * time.Minute
	DefaultResponseTTL    = 2 * time.Hour
	DefaultDocumentSetTTL = time.Hour
)

// ServiceConfig carries the per-tier TTLs and near-duplicate settings.
type ServiceConfig struct {
	SearchTTL      time.Duration
	ResponseTTL    time.Duration
	DocumentSetTTL time.Duration

	HistorySize         int
	NearDuplicateCutoff float64
	NearDuplicateWindow time.Duration
}

// Service bundles the logically separate cache tiers behind one handle. It is
// constructed once by the composition root and passed to every consumer; there
// are no package-level singletons. The embedding tier lives in the embedding
// package because it is keyed by content hash rather than lookup shape.
type Service struct {
	Searches     *Store[[]search.Result]
	Responses    *Store[string]
	DocumentSets *Store[[]domain.Chunk]
	History      *QueryHistory
}

// Stats is a point-in-time snapshot of tier sizes.
type Stats struct {
	SearchEntries      int `json:"search_entries"`
	ResponseEntries    int `json:"response_entries"`
	DocumentSetEntries int `json:"document_set_entries"`
	HistoryEntries     int `json:"history_entries"`
}

// NewService creates the cache tiers with the given TTLs. Zero durations fall
// back to the defaults.
func NewService(cfg ServiceConfig, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock()
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = DefaultSearchTTL
	}
	if cfg.ResponseTTL <= 0 {
		cfg.ResponseTTL = DefaultResponseTTL
	}
	if cfg.DocumentSetTTL <= 0 {
		cfg.DocumentSetTTL = DefaultDocumentSetTTL
	}

	return &Service{
		Searches:     NewStore[[]search.Result](cfg.SearchTTL, clock),
		Responses:    NewStore[string](cfg.ResponseTTL, clock),
		DocumentSets: NewStore[[]domain.Chunk](cfg.DocumentSetTTL, clock),
		History:      NewQueryHistory(cfg.HistorySize, cfg.NearDuplicateCutoff, cfg.NearDuplicateWindow, clock),
	}
}

// ClearAll drops every tier and the query history.
func (s *Service) ClearAll() {
	s.Searches.Clear()
	s.Responses.Clear()
	s.DocumentSets.Clear()
	s.History.Clear()
}

// Stats reports current tier sizes.
func (s *Service) Stats() Stats {
	return Stats{
		SearchEntries:      s.Searches.Len(),
		ResponseEntries:    s.Responses.Len(),
		DocumentSetEntries: s.DocumentSets.Len(),
		HistoryEntries:     s.History.Len(),
	}
}

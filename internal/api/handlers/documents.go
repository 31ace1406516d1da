package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skylane-ai/aerocontext/internal/api"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/pagination"
	"github.com/skylane-ai/aerocontext/internal/service"
)

type IngestionServiceInterface interface {
	Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeDocument, error)
	Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error)
	List(ctx context.Context, cursor string, limit int) (*pagination.PageResult[*domain.KnowledgeDocument], error)
	Delete(ctx context.Context, id string) error
	Analyze(ctx context.Context, id string) (*domain.DocumentAnalysis, error)
	Reprocess(ctx context.Context, id string) error
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

type DocumentHandler struct {
	svc IngestionServiceInterface
}

func NewDocumentHandler(svc IngestionServiceInterface) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type IngestDocumentRequest struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Chapter     string   `json:"chapter,omitempty"`
	Section     string   `json:"section,omitempty"`
	Type        string   `json:"type,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

type DocumentResponse struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags,omitempty"`
	Chapter     string   `json:"chapter,omitempty"`
	Section     string   `json:"section,omitempty"`
	Type        string   `json:"type,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	Status      string   `json:"status"`
	Size        int      `json:"size"`
	IngestedAt  string   `json:"ingested_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Items   []*DocumentResponse `json:"items"`
	Cursor  string              `json:"cursor,omitempty"`
	HasMore bool                `json:"has_more"`
}

type AnalysisResponse struct {
	DocumentID    string   `json:"document_id"`
	Size          int      `json:"size"`
	TopicCount    int      `json:"topic_count"`
	MainTopics    []string `json:"main_topics,omitempty"`
	Density       float64  `json:"density"`
	Quality       string   `json:"quality"`
	NeedsChunking bool     `json:"needs_chunking"`
	Priority      string   `json:"priority"`
}

type ChunkResponse struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Topic         string   `json:"topic"`
	ProcedureType string   `json:"procedure_type"`
	Keywords      []string `json:"keywords,omitempty"`
	ChunkIndex    int      `json:"chunk_index"`
	TotalChunks   int      `json:"total_chunks"`
	Chunked       bool     `json:"chunked"`
}

func documentToResponse(d *domain.KnowledgeDocument) *DocumentResponse {
	return &DocumentResponse{
		ID:          d.ID,
		DisplayName: d.DisplayName,
		Summary:     d.Summary,
		Tags:        d.Tags,
		Chapter:     d.Metadata.Chapter,
		Section:     d.Metadata.Section,
		Type:        d.Metadata.Type,
		SourceURL:   d.Metadata.SourceURL,
		Status:      string(d.Status),
		Size:        d.Size(),
		IngestedAt:  d.IngestedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   d.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func chunkToResponse(c *domain.Chunk) *ChunkResponse {
	return &ChunkResponse{
		ID:            c.ID,
		Title:         c.Title,
		Content:       c.Content,
		Topic:         c.Topic,
		ProcedureType: c.ProcedureType,
		Keywords:      c.Keywords,
		ChunkIndex:    c.ChunkIndex,
		TotalChunks:   c.TotalChunks,
		Chunked:       c.Chunked,
	}
}

// Ingest handles POST /v1/documents.
func (h *DocumentHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	doc, err := h.svc.Ingest(r.Context(), service.IngestInput{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Content:     req.Content,
		Summary:     req.Summary,
		Tags:        req.Tags,
		Metadata: domain.DocumentMetadata{
			Chapter:   req.Chapter,
			Section:   req.Section,
			Type:      req.Type,
			SourceURL: req.SourceURL,
		},
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, documentToResponse(doc))
}

// Get handles GET /v1/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

// List handles GET /v1/documents with cursor pagination.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	page, err := h.svc.List(r.Context(), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, documentToResponse(d))
	}

	api.Success(w, http.StatusOK, ListDocumentsResponse{
		Items:   items,
		Cursor:  page.Cursor,
		HasMore: page.HasMore,
	})
}

// Delete handles DELETE /v1/documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Analysis handles GET /v1/documents/{id}/analysis.
func (h *DocumentHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	analysis, err := h.svc.Analyze(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AnalysisResponse{
		DocumentID:    analysis.DocumentID,
		Size:          analysis.Size,
		TopicCount:    analysis.TopicCount,
		MainTopics:    analysis.MainTopics,
		Density:       analysis.Density,
		Quality:       string(analysis.Quality),
		NeedsChunking: analysis.NeedsChunking,
		Priority:      string(analysis.Priority),
	})
}

// Reprocess handles POST /v1/documents/{id}/reprocess.
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Reprocess(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// Chunks handles GET /v1/documents/{id}/chunks.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	chunks, err := h.svc.Chunks(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*ChunkResponse, 0, len(chunks))
	for i := range chunks {
		out = append(out, chunkToResponse(&chunks[i]))
	}

	api.Success(w, http.StatusOK, out)
}

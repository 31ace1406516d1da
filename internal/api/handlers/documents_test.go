package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/pagination"
	"github.com/skylane-ai/aerocontext/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, input service.IngestInput) (*domain.KnowledgeDocument, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeDocument), args.Error(1)
}

func (m *MockIngestionService) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeDocument), args.Error(1)
}

func (m *MockIngestionService) List(ctx context.Context, cursor string, limit int) (*pagination.PageResult[*domain.KnowledgeDocument], error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.KnowledgeDocument]), args.Error(1)
}

func (m *MockIngestionService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIngestionService) Analyze(ctx context.Context, id string) (*domain.DocumentAnalysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentAnalysis), args.Error(1)
}

func (m *MockIngestionService) Reprocess(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIngestionService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chunk), args.Error(1)
}

func newTestDocument() *domain.KnowledgeDocument {
	now := time.Now().UTC()
	return &domain.KnowledgeDocument{
		ID:          "doc-123",
		DisplayName: "Wake Turbulence Application",
		Content:     "WAKE TURBULENCE APPLICATION\nSeparate aircraft by the applicable minima.",
		Tags:        []string{"separation"},
		Metadata:    domain.DocumentMetadata{Chapter: "5", Section: "5-2-3", Type: "procedure"},
		Status:      domain.ProcessingStatusPending,
		IngestedAt:  now,
		UpdatedAt:   now,
	}
}

func requestWithURLParam(method, url, key, value string, body []byte) *http.Request {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDocumentHandler_Ingest(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	doc := newTestDocument()
	mockSvc.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.ID == "doc-123" && input.Metadata.Chapter == "5"
	})).Return(doc, nil)

	body, _ := json.Marshal(IngestDocumentRequest{
		ID:          "doc-123",
		DisplayName: "Wake Turbulence Application",
		Content:     doc.Content,
		Chapter:     "5",
		Section:     "5-2-3",
		Type:        "procedure",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var wrapper struct {
		Data DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, "doc-123", wrapper.Data.ID)
	assert.Equal(t, "pending", wrapper.Data.Status)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Ingest_MissingContent(t *testing.T) {
	handler := NewDocumentHandler(new(MockIngestionService))

	body, _ := json.Marshal(IngestDocumentRequest{ID: "doc-123"})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Ingest_Duplicate(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Ingest", mock.Anything, mock.Anything).Return(nil, domain.ErrDocumentAlreadyExists)

	body, _ := json.Marshal(IngestDocumentRequest{ID: "doc-123", Content: "content"})
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.Ingest(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDocumentHandler_Get(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "doc-123").Return(newTestDocument(), nil)

	req := requestWithURLParam(http.MethodGet, "/v1/documents/doc-123", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Get", mock.Anything, "missing").Return(nil, domain.ErrDocumentNotFound)

	req := requestWithURLParam(http.MethodGet, "/v1/documents/missing", "id", "missing", nil)
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_List(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	page := &pagination.PageResult[*domain.KnowledgeDocument]{
		Items:   []*domain.KnowledgeDocument{newTestDocument()},
		Cursor:  "next-cursor",
		HasMore: true,
	}
	mockSvc.On("List", mock.Anything, "", 20).Return(page, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?limit=20", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var wrapper struct {
		Data ListDocumentsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Len(t, wrapper.Data.Items, 1)
	assert.True(t, wrapper.Data.HasMore)
	assert.Equal(t, "next-cursor", wrapper.Data.Cursor)
}

func TestDocumentHandler_List_InvalidLimit(t *testing.T) {
	handler := NewDocumentHandler(new(MockIngestionService))

	req := httptest.NewRequest(http.MethodGet, "/v1/documents?limit=500", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_Analysis(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Analyze", mock.Anything, "doc-123").Return(&domain.DocumentAnalysis{
		DocumentID:    "doc-123",
		Size:          12000,
		TopicCount:    4,
		MainTopics:    []string{"wake turbulence", "separation minima"},
		Quality:       domain.QualityDiluted,
		NeedsChunking: true,
		Priority:      domain.PriorityHigh,
	}, nil)

	req := requestWithURLParam(http.MethodGet, "/v1/documents/doc-123/analysis", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Analysis(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var wrapper struct {
		Data AnalysisResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	assert.Equal(t, "diluted", wrapper.Data.Quality)
	assert.Equal(t, "high", wrapper.Data.Priority)
	assert.True(t, wrapper.Data.NeedsChunking)
}

func TestDocumentHandler_Reprocess(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Reprocess", mock.Anything, "doc-123").Return(nil)

	req := requestWithURLParam(http.MethodPost, "/v1/documents/doc-123/reprocess", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Reprocess(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDocumentHandler_Chunks(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	chunks := []domain.Chunk{
		{ID: "c1", Title: "Wake Turbulence Application", Topic: "wake_turbulence", ChunkIndex: 0, TotalChunks: 2, Chunked: true},
		{ID: "c2", Title: "Separation Minima", Topic: "separation_minima", ChunkIndex: 1, TotalChunks: 2, Chunked: true},
	}
	mockSvc.On("Chunks", mock.Anything, "doc-123").Return(chunks, nil)

	req := requestWithURLParam(http.MethodGet, "/v1/documents/doc-123/chunks", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Chunks(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var wrapper struct {
		Data []ChunkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))
	require.Len(t, wrapper.Data, 2)
	assert.Equal(t, "wake_turbulence", wrapper.Data[0].Topic)
}

func TestDocumentHandler_Delete(t *testing.T) {
	mockSvc := new(MockIngestionService)
	handler := NewDocumentHandler(mockSvc)

	mockSvc.On("Delete", mock.Anything, "doc-123").Return(nil)

	req := requestWithURLParam(http.MethodDelete, "/v1/documents/doc-123", "id", "doc-123", nil)
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

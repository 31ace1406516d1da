package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skylane-ai/aerocontext/internal/api"
	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/search"
	"github.com/skylane-ai/aerocontext/internal/service"
)

type RetrievalServiceInterface interface {
	Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error)
	LookupResponse(query string, docs map[string]float64) (string, bool)
	StoreResponse(query string, docs map[string]float64, response string)
	CacheStats() cache.Stats
	ClearCaches()
}

type SearchHandler struct {
	svc RetrievalServiceInterface
}

func NewSearchHandler(svc RetrievalServiceInterface) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Query      string  `json:"query"`
	Limit      int     `json:"limit,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	VectorOnly bool    `json:"vector_only,omitempty"`
}

type SearchResponse struct {
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
	Cached  bool            `json:"cached"`
}

// Search handles POST /v1/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:      req.Query,
		Limit:      req.Limit,
		Threshold:  req.Threshold,
		VectorOnly: req.VectorOnly,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Results: out.Results,
		Count:   len(out.Results),
		Cached:  out.Cached,
	})
}

type ResponseLookupRequest struct {
	Query     string             `json:"query"`
	Documents map[string]float64 `json:"documents"`
}

type ResponseLookupResponse struct {
	Response string `json:"response,omitempty"`
	Found    bool   `json:"found"`
}

// LookupResponse handles POST /v1/responses/lookup: exact-key response cache
// with near-duplicate query fallback.
func (h *SearchHandler) LookupResponse(w http.ResponseWriter, r *http.Request) {
	var req ResponseLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	resp, found := h.svc.LookupResponse(req.Query, req.Documents)
	api.Success(w, http.StatusOK, ResponseLookupResponse{Response: resp, Found: found})
}

type ResponseStoreRequest struct {
	Query     string             `json:"query"`
	Documents map[string]float64 `json:"documents"`
	Response  string             `json:"response"`
}

// StoreResponse handles POST /v1/responses.
func (h *SearchHandler) StoreResponse(w http.ResponseWriter, r *http.Request) {
	var req ResponseStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.Response == "" {
		api.Error(w, http.StatusBadRequest, "response is required")
		return
	}

	h.svc.StoreResponse(req.Query, req.Documents, req.Response)
	api.Success(w, http.StatusCreated, map[string]string{"status": "stored"})
}

// CacheStats handles GET /v1/cache/stats.
func (h *SearchHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.CacheStats())
}

// ClearCache handles DELETE /v1/cache.
func (h *SearchHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCaches()
	api.Success(w, http.StatusOK, map[string]string{"status": "cleared"})
}

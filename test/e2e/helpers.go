//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skylane-ai/aerocontext/internal/analyzer"
	"github.com/skylane-ai/aerocontext/internal/api/handlers"
	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/chunker"
	"github.com/skylane-ai/aerocontext/internal/embedding"
	"github.com/skylane-ai/aerocontext/internal/jobs"
	"github.com/skylane-ai/aerocontext/internal/repository"
	"github.com/skylane-ai/aerocontext/internal/search"
	"github.com/skylane-ai/aerocontext/internal/server"
	"github.com/skylane-ai/aerocontext/internal/service"
	"github.com/skylane-ai/aerocontext/internal/testutil"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with a container-backed
// database and an in-process server. Embeddings come from a deterministic
// local embedder so no external provider is needed.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildCLI builds the aeroctx binary for CLI tests
func (e *E2ETestEnv) BuildCLI() {
	tmpDir, err := os.MkdirTemp("", "aerocontext-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "aeroctx"), "./cmd/aeroctx")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build aeroctx: %v\n%s", err, out)
	}
}

// RunCLI runs the aeroctx command against the test server
func (e *E2ETestEnv) RunCLI(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "aeroctx"), args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("AEROCONTEXT_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunCLIWithInput runs the aeroctx command with stdin input
func (e *E2ETestEnv) RunCLIWithInput(input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "aeroctx"), args...)
	cmd.Stdin = bytes.NewReader([]byte(input))
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("AEROCONTEXT_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// IngestDocument posts a document and returns its ID
func (e *E2ETestEnv) IngestDocument(doc map[string]interface{}) string {
	resp, err := e.Post("/v1/documents", doc)
	if err != nil {
		e.T.Fatalf("failed to ingest document: %v", err)
	}

	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		e.T.Fatalf("failed to parse ingest response: %v", err)
	}
	return data.ID
}

// WaitForIndexed polls a document until the ingest worker marks it indexed
func (e *E2ETestEnv) WaitForIndexed(id string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get("/v1/documents/" + id)
		if err == nil {
			var data struct {
				Status string `json:"status"`
			}
			if json.Unmarshal(resp.Data, &data) == nil {
				switch data.Status {
				case "indexed":
					return
				case "failed":
					e.T.Fatalf("document %s failed to index", id)
				}
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	e.T.Fatalf("document %s was not indexed within %v", id, timeout)
}

// wordEmbedder produces deterministic embeddings by hashing words into a
// fixed-size bag-of-words vector. Texts sharing vocabulary get similar
// vectors, which is enough for ranking assertions without a real provider.
type wordEmbedder struct{}

func (wordEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 1536)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%1536]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

// startServer wires the full service stack against the test database and
// starts an HTTP server plus the ingest worker
func startServer(t *testing.T, pool *pgxpool.Pool, port int) (string, func()) {
	documentRepo := repository.NewDocumentRepository(pool)
	corpusRepo := repository.NewCorpusRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	caches := cache.NewService(cache.ServiceConfig{
		SearchTTL:           30 * time.Minute,
		ResponseTTL:         2 * time.Hour,
		DocumentSetTTL:      time.Hour,
		NearDuplicateCutoff: 0.8,
		NearDuplicateWindow: time.Hour,
	}, nil)
	embedCache := embedding.NewCache(0, 7*24*time.Hour, nil)

	embedder := wordEmbedder{}
	engine := search.NewEngine(corpusRepo)

	retrievalSvc := service.NewRetrievalService(engine, embedder, embedCache, caches,
		service.RetrievalConfig{
			DefaultLimit:     10,
			DefaultThreshold: 0.7,
			Timeout:          20 * time.Second,
		})

	ingestionSvc := service.NewIngestionService(service.IngestionConfig{
		Documents:  documentRepo,
		Corpus:     corpusRepo,
		Jobs:       ingestJobRepo,
		TxRunner:   txRunner,
		Analyzer:   analyzer.New(),
		Chunker:    chunker.New(),
		Embedder:   embedder,
		EmbedCache: embedCache,
		Caches:     caches,
		Batch:      embedding.BatchConfig{BatchSize: 10},
	})

	workerCtx, workerCancel := context.WithCancel(context.Background())
	ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestionSvc)
	ingestWorker := jobs.NewWorker(ingestProcessor, 100*time.Millisecond)
	go ingestWorker.Start(workerCtx)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:   handlers.NewSearchHandler(retrievalSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		workerCancel()
		ingestWorker.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/skylane-ai/aerocontext/internal/analyzer"
	"github.com/skylane-ai/aerocontext/internal/api/handlers"
	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/chunker"
	"github.com/skylane-ai/aerocontext/internal/config"
	"github.com/skylane-ai/aerocontext/internal/database"
	"github.com/skylane-ai/aerocontext/internal/embedding"
	"github.com/skylane-ai/aerocontext/internal/jobs"
	"github.com/skylane-ai/aerocontext/internal/openai"
	"github.com/skylane-ai/aerocontext/internal/repository"
	"github.com/skylane-ai/aerocontext/internal/search"
	"github.com/skylane-ai/aerocontext/internal/server"
	"github.com/skylane-ai/aerocontext/internal/service"
	"github.com/skylane-ai/aerocontext/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the retrieval API server",
		Long:  "Start the aerocontext retrieval API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("AEROCONTEXT_DATABASE_URL is required")
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("AEROCONTEXT_OPENAI_API_KEY is required")
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	documentRepo := repository.NewDocumentRepository(pool)
	corpusRepo := repository.NewCorpusRepository(pool)
	ingestJobRepo := repository.NewIngestJobRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	caches := cache.NewService(cache.ServiceConfig{
		SearchTTL:           cfg.SearchCacheTTL,
		ResponseTTL:         cfg.ResponseCacheTTL,
		DocumentSetTTL:      cfg.DocumentSetCacheTTL,
		NearDuplicateCutoff: cfg.NearDuplicateCutoff,
		NearDuplicateWindow: cfg.NearDuplicateWindow,
	}, nil)
	embedCache := embedding.NewCache(0, cfg.EmbeddingCacheTTL, nil)

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Timeout: cfg.EmbedTimeout,
	})

	engine := search.NewEngine(corpusRepo)

	retrievalSvc := service.NewRetrievalService(engine, embedder, embedCache, caches,
		service.RetrievalConfig{
			DefaultLimit:     cfg.SearchLimit,
			DefaultThreshold: cfg.SearchThreshold,
			VectorThreshold:  cfg.VectorThreshold,
			Timeout:          cfg.SearchTimeout,
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
		Batch:      embedding.BatchConfig{BatchSize: cfg.EmbedBatchSize},
	})

	ingestProcessor := jobs.NewIngestWorker(ingestJobRepo, ingestionSvc)
	ingestWorker := jobs.NewWorker(ingestProcessor, cfg.JobPollInterval)
	go ingestWorker.Start(ctx)
	log.Println("ingest worker started")

	routerCfg := server.RouterConfig{
		SearchHandler:   handlers.NewSearchHandler(retrievalSvc),
		DocumentHandler: handlers.NewDocumentHandler(ingestionSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	ingestWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/skylane-ai/aerocontext/internal/analyzer"
	"github.com/skylane-ai/aerocontext/internal/cache"
	"github.com/skylane-ai/aerocontext/internal/chunker"
	"github.com/skylane-ai/aerocontext/internal/config"
	"github.com/skylane-ai/aerocontext/internal/database"
	"github.com/skylane-ai/aerocontext/internal/domain"
	"github.com/skylane-ai/aerocontext/internal/embedding"
	"github.com/skylane-ai/aerocontext/internal/openai"
	"github.com/skylane-ai/aerocontext/internal/repository"
	"github.com/skylane-ai/aerocontext/internal/service"
	"github.com/skylane-ai/aerocontext/internal/storage"
)

// IngestCmd returns the ingest command, which bulk-loads procedure documents
// from the configured S3 bucket into the corpus.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Bulk-ingest documents from object storage",
		Long:  "Read JSON procedure documents from the configured S3 bucket and queue them for indexing",
		RunE:  runIngest,
	}

	cmd.Flags().String("prefix", "", "Object key prefix to read from (overrides S3_PREFIX)")
	cmd.Flags().Bool("process", false, "Embed and index documents inline instead of queueing them")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("AEROCONTEXT_DATABASE_URL is required")
	}
	if !cfg.HasS3() {
		return fmt.Errorf("S3 configuration is required (S3_ENDPOINT, S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY)")
	}

	processInline, _ := cmd.Flags().GetBool("process")
	if processInline && !cfg.HasOpenAI() {
		return fmt.Errorf("AEROCONTEXT_OPENAI_API_KEY is required with --process")
	}

	prefix := cfg.S3Prefix
	if flagPrefix, _ := cmd.Flags().GetString("prefix"); flagPrefix != "" {
		prefix = flagPrefix
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	source, err := storage.NewDocumentSource(ctx, storage.DocumentSourceConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		Prefix:          prefix,
		UsePathStyle:    true,
	})
	if err != nil {
		return fmt.Errorf("failed to create document source: %w", err)
	}

	var embedder service.EmbeddingClient
	if cfg.HasOpenAI() {
		embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			Timeout: cfg.EmbedTimeout,
		})
	}

	svc := service.NewIngestionService(service.IngestionConfig{
		Documents:  repository.NewDocumentRepository(pool),
		Corpus:     repository.NewCorpusRepository(pool),
		Jobs:       repository.NewIngestJobRepository(pool),
		TxRunner:   repository.NewTxRunner(pool),
		Analyzer:   analyzer.New(),
		Chunker:    chunker.New(),
		Embedder:   embedder,
		EmbedCache: embedding.NewCache(0, cfg.EmbeddingCacheTTL, nil),
		Caches:     cache.NewService(cache.ServiceConfig{}, nil),
		Batch:      embedding.BatchConfig{BatchSize: cfg.EmbedBatchSize},
	})

	keys, err := source.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	log.Printf("found %d document files under %s/%s", len(keys), cfg.S3Bucket, prefix)

	var ingested, skipped, failed int
	for _, key := range keys {
		docs, err := source.FetchDocuments(ctx, key)
		if err != nil {
			log.Printf("skipping %s: %v", key, err)
			failed++
			continue
		}

		for _, src := range docs {
			doc, err := svc.Ingest(ctx, service.IngestInput{
				ID:          src.ID,
				DisplayName: src.DisplayName,
				Content:     src.Content,
				Summary:     src.Summary,
				Tags:        src.Tags,
				Metadata: domain.DocumentMetadata{
					Chapter:   src.Chapter,
					Section:   src.Section,
					Type:      src.Type,
					SourceURL: src.SourceURL,
				},
			})
			if err != nil {
				if errors.Is(err, domain.ErrDocumentAlreadyExists) {
					skipped++
					continue
				}
				log.Printf("failed to ingest %s from %s: %v", src.ID, key, err)
				failed++
				continue
			}
			ingested++

			if processInline {
				if err := svc.Process(ctx, doc.ID); err != nil {
					log.Printf("failed to index %s: %v", doc.ID, err)
					failed++
				}
			}
		}
	}

	log.Printf("ingest complete: %d ingested, %d skipped, %d failed", ingested, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d documents failed", failed)
	}
	return nil
}

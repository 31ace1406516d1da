package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"aerocontext-corpus"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"documents/"`

	// Ingest worker
	JobPollInterval time.Duration `envconfig:"JOB_POLL_INTERVAL" default:"10s"`

	// Retrieval defaults
	SearchLimit     int     `envconfig:"SEARCH_LIMIT" default:"10"`
	SearchThreshold float64 `envconfig:"SEARCH_THRESHOLD" default:"0.7"`
	VectorThreshold float64 `envconfig:"VECTOR_THRESHOLD" default:"0.5"`
	SearchTimeout   time.Duration `envconfig:"SEARCH_TIMEOUT" default:"20s"`

	// Embedding provider
	EmbedTimeout   time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	EmbedBatchSize int           `envconfig:"EMBED_BATCH_SIZE" default:"10"`

	// Cache TTLs
	EmbeddingCacheTTL   time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"168h"`
	SearchCacheTTL      time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"30m"`
	ResponseCacheTTL    time.Duration `envconfig:"RESPONSE_CACHE_TTL" default:"2h"`
	DocumentSetCacheTTL time.Duration `envconfig:"DOCUMENT_SET_CACHE_TTL" default:"1h"`

	// Near-duplicate query detection
	NearDuplicateCutoff float64       `envconfig:"NEAR_DUPLICATE_CUTOFF" default:"0.8"`
	NearDuplicateWindow time.Duration `envconfig:"NEAR_DUPLICATE_WINDOW" default:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("AEROCONTEXT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.SearchThreshold < 0 || cfg.SearchThreshold > 1 {
		return nil, fmt.Errorf("search threshold must be in [0,1], got %v", cfg.SearchThreshold)
	}
	if cfg.NearDuplicateCutoff < 0 || cfg.NearDuplicateCutoff > 1 {
		return nil, fmt.Errorf("near-duplicate cutoff must be in [0,1], got %v", cfg.NearDuplicateCutoff)
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 10
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

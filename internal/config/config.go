// Package config holds process configuration for the ingestion pipeline.
// Configuration is read from the environment once at startup, validated
// eagerly, and injected into components. Components never read the
// environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Embedding provider selection values.
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultIndexName      = "rag-index"
	DefaultAPIVersion     = "2025-06-01"
	DefaultBatchSize      = 50
	DefaultRequestTimeout = 30 * time.Second
	DefaultEventDeadline  = 120 * time.Second
)

// Config is the full process configuration.
type Config struct {
	// Provider selects the embedding implementation: "openai" or "mock".
	Provider string

	// OpenAIAPIKey authenticates embedding calls. Required when Provider
	// is "openai".
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the embedding endpoint, e.g. for an
	// OpenAI-compatible local server. Empty means the public API.
	OpenAIBaseURL string

	// EmbeddingModel is the model identifier sent with embedding requests.
	EmbeddingModel string

	// SearchEndpoint is the base URL of the vector index service.
	SearchEndpoint string

	// SearchAPIKey authenticates vector index calls.
	SearchAPIKey string

	// SearchAPIVersion is sent as the X-Api-Version header on index calls.
	SearchAPIVersion string

	// IndexName is the namespace written to and bootstrapped.
	IndexName string

	// BatchSize bounds how many records go into one bulk upsert.
	BatchSize int

	// RequestTimeout bounds each outbound call (object fetch, embedding,
	// upsert).
	RequestTimeout time.Duration

	// EventDeadline bounds one whole ingestion event.
	EventDeadline time.Duration

	// UpsertWorkers is the number of batches upserted concurrently.
	// 1 means sequential.
	UpsertWorkers int
}

// Load builds a Config from the environment and validates it.
func Load() (Config, error) {
	cfg := Config{
		Provider:         getEnv("RAG_EMBEDDING_PROVIDER", ProviderOpenAI),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		EmbeddingModel:   getEnv("RAG_EMBEDDING_MODEL", DefaultEmbeddingModel),
		SearchEndpoint:   os.Getenv("SEARCH_ENDPOINT"),
		SearchAPIKey:     os.Getenv("SEARCH_API_KEY"),
		SearchAPIVersion: getEnv("SEARCH_API_VERSION", DefaultAPIVersion),
		IndexName:        getEnv("RAG_INDEX_NAME", DefaultIndexName),
		BatchSize:        getEnvInt("RAG_BATCH_SIZE", DefaultBatchSize),
		RequestTimeout:   getEnvSeconds("RAG_REQUEST_TIMEOUT_SECONDS", DefaultRequestTimeout),
		EventDeadline:    getEnvSeconds("RAG_EVENT_DEADLINE_SECONDS", DefaultEventDeadline),
		UpsertWorkers:    getEnvInt("RAG_UPSERT_WORKERS", 1),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. A missing credential
// for the selected provider is a startup error, not a per-event failure.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when RAG_EMBEDDING_PROVIDER=%s", ProviderOpenAI)
		}
	case ProviderMock:
		// No credential needed.
	default:
		return fmt.Errorf("invalid RAG_EMBEDDING_PROVIDER %q (want %q or %q)", c.Provider, ProviderOpenAI, ProviderMock)
	}

	if c.SearchEndpoint == "" {
		return fmt.Errorf("SEARCH_ENDPOINT is required")
	}
	if c.SearchAPIKey == "" {
		return fmt.Errorf("SEARCH_API_KEY is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("RAG_INDEX_NAME must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("RAG_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.UpsertWorkers < 1 {
		return fmt.Errorf("RAG_UPSERT_WORKERS must be at least 1, got %d", c.UpsertWorkers)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			return time.Duration(s) * time.Second
		}
	}
	return defaultValue
}

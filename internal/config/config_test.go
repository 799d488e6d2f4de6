package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setBaseEnv sets the minimum environment for a valid openai config.
func setBaseEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SEARCH_ENDPOINT", "https://search.example.com")
	t.Setenv("SEARCH_API_KEY", "search-key")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, DefaultIndexName, cfg.IndexName)
	assert.Equal(t, DefaultAPIVersion, cfg.SearchAPIVersion)
	assert.Equal(t, DefaultBatchSize, cfg.BatchSize)
	assert.Equal(t, DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, DefaultEventDeadline, cfg.EventDeadline)
	assert.Equal(t, 1, cfg.UpsertWorkers)
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RAG_INDEX_NAME", "support-index")
	t.Setenv("RAG_BATCH_SIZE", "25")
	t.Setenv("RAG_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("RAG_UPSERT_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "support-index", cfg.IndexName)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 4, cfg.UpsertWorkers)
}

func TestMockProviderNeedsNoAPIKey(t *testing.T) {
	t.Setenv("RAG_EMBEDDING_PROVIDER", ProviderMock)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SEARCH_ENDPOINT", "https://search.example.com")
	t.Setenv("SEARCH_API_KEY", "search-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.Provider)
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing openai key",
			mutate:  func(c *Config) { c.OpenAIAPIKey = "" },
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "bedrock" },
			wantErr: "RAG_EMBEDDING_PROVIDER",
		},
		{
			name:    "missing search endpoint",
			mutate:  func(c *Config) { c.SearchEndpoint = "" },
			wantErr: "SEARCH_ENDPOINT",
		},
		{
			name:    "missing search key",
			mutate:  func(c *Config) { c.SearchAPIKey = "" },
			wantErr: "SEARCH_API_KEY",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: "RAG_BATCH_SIZE",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.UpsertWorkers = 0 },
			wantErr: "RAG_UPSERT_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Provider:       ProviderOpenAI,
				OpenAIAPIKey:   "sk-test",
				EmbeddingModel: DefaultEmbeddingModel,
				SearchEndpoint: "https://search.example.com",
				SearchAPIKey:   "search-key",
				IndexName:      DefaultIndexName,
				BatchSize:      DefaultBatchSize,
				UpsertWorkers:  1,
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

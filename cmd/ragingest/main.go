// Package main provides the ragingest CLI for the document ingestion and
// indexing pipeline.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/rag-ingest/internal/config"
	"github.com/bull/rag-ingest/internal/embedding"
	"github.com/bull/rag-ingest/internal/pipeline"
	"github.com/bull/rag-ingest/internal/search"
	"github.com/bull/rag-ingest/internal/source"
)

var rootCmd = &cobra.Command{
	Use:   "ragingest",
	Short: "Document ingestion and indexing for the RAG knowledge base",
	Long:  "CLI tool for embedding uploaded Q&A documents and indexing them into the vector store",
}

var (
	flagBucket    string
	flagKey       string
	flagEventFile string
	flagBootstrap bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one ingestion event",
	Long: `Fetches the uploaded object, parses its Q&A records, embeds them, and
upserts them into the vector index in independent batches.

The object is given either directly (--bucket and --key) or as a storage
notification payload (--event). Every object referenced by the event is
processed.

Environment variables:
  RAG_EMBEDDING_PROVIDER       "openai" or "mock" (default: openai)
  OPENAI_API_KEY               OpenAI API key (required for openai provider)
  OPENAI_BASE_URL              Embedding endpoint override (optional)
  RAG_EMBEDDING_MODEL          Embedding model (default: text-embedding-3-small)
  SEARCH_ENDPOINT              Vector store base URL (required)
  SEARCH_API_KEY               Vector store API key (required)
  SEARCH_API_VERSION           Vector store API version header
  RAG_INDEX_NAME               Target index (default: rag-index)
  RAG_BATCH_SIZE               Records per bulk upsert (default: 50)
  RAG_UPSERT_WORKERS           Concurrent batch upserts (default: 1)
  RAG_REQUEST_TIMEOUT_SECONDS  Per-call timeout (default: 30)
  RAG_EVENT_DEADLINE_SECONDS   Whole-event deadline (default: 120)`,
	RunE: runIngest,
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the vector index schema",
	Long: `Idempotently creates the target index with its vector schema
(1536-dimension knn vector plus text and id fields). Safe to invoke on
every deployment: an existing index is success, not an error.`,
	RunE: runBootstrap,
}

func init() {
	runCmd.Flags().StringVar(&flagBucket, "bucket", "", "storage bucket of the uploaded object")
	runCmd.Flags().StringVar(&flagKey, "key", "", "storage key of the uploaded object")
	runCmd.Flags().StringVar(&flagEventFile, "event", "", "path to a storage notification JSON payload")
	runCmd.Flags().BoolVar(&flagBootstrap, "bootstrap", false, "ensure the index exists before ingesting")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(bootstrapCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	refs, err := resolveRefs()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.EventDeadline)
	defer cancel()

	logger := slog.Default()

	s3Client, err := source.NewS3Client(ctx)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	reader := source.NewReader(s3Client, cfg.RequestTimeout, logger)

	provider := newProvider(cfg)
	store := search.NewClient(cfg.SearchEndpoint, cfg.IndexName, cfg.SearchAPIKey, cfg.SearchAPIVersion, cfg.RequestTimeout, logger)

	if flagBootstrap {
		if err := store.EnsureIndex(ctx); err != nil {
			return err
		}
	}

	p := pipeline.New(reader, provider, store, cfg.BatchSize, cfg.UpsertWorkers, logger)

	results, runErr := p.RunEvent(ctx, refs)
	for _, result := range results {
		fmt.Printf("%s: %d records in %d batches, %d upserted, %d failed (%s)\n",
			result.Object,
			result.TotalRecords,
			result.TotalBatches,
			result.UpsertedBatches,
			len(result.FailedBatches),
			result.Duration.Round(time.Millisecond),
		)
		for _, failed := range result.FailedBatches {
			fmt.Printf("  batch %d (records %d-%d): %s\n", failed.Index, failed.Start, failed.End, failed.Reason)
		}
	}
	return runErr
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.EventDeadline)
	defer cancel()

	store := search.NewClient(cfg.SearchEndpoint, cfg.IndexName, cfg.SearchAPIKey, cfg.SearchAPIVersion, cfg.RequestTimeout, slog.Default())

	if err := store.PingWithRetry(ctx); err != nil {
		return fmt.Errorf("vector store not reachable: %w", err)
	}
	if err := store.EnsureIndex(ctx); err != nil {
		return err
	}

	fmt.Printf("Index %q ready\n", store.Index())
	return nil
}

// resolveRefs turns the run flags into object references: either one
// bucket/key pair or everything referenced by an event payload.
func resolveRefs() ([]source.ObjectRef, error) {
	if flagEventFile != "" {
		if flagBucket != "" || flagKey != "" {
			return nil, fmt.Errorf("--event and --bucket/--key are mutually exclusive")
		}
		payload, err := os.ReadFile(flagEventFile)
		if err != nil {
			return nil, fmt.Errorf("read event file: %w", err)
		}
		return source.ParseEvent(payload)
	}

	if flagBucket == "" || flagKey == "" {
		return nil, fmt.Errorf("either --event or both --bucket and --key are required")
	}
	return []source.ObjectRef{{Bucket: flagBucket, Key: flagKey}}, nil
}

func newProvider(cfg config.Config) embedding.Provider {
	if cfg.Provider == config.ProviderMock {
		return embedding.NewMockProvider()
	}
	return embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
}

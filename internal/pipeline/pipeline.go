// Package pipeline orchestrates one ingestion event: fetch the uploaded
// object, parse its records, embed them, and upsert them into the vector
// index in independent batches.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/bull/rag-ingest/internal/embedding"
	"github.com/bull/rag-ingest/internal/record"
	"github.com/bull/rag-ingest/internal/search"
	"github.com/bull/rag-ingest/internal/source"
)

// DefaultBatchSize bounds one bulk write to the index.
const DefaultBatchSize = 50

// ObjectFetcher fetches an uploaded object's content.
type ObjectFetcher interface {
	Fetch(ctx context.Context, ref source.ObjectRef) (string, error)
}

// Upserter writes one batch of documents to the vector index.
type Upserter interface {
	BulkUpsert(ctx context.Context, docs []search.Document) error
}

// FailedBatch records one batch that could not be written. Start and End
// are the record index range [Start, End) in the parsed sequence, enough
// context to re-drive exactly that batch.
type FailedBatch struct {
	Index  int
	Start  int
	End    int
	Reason string
}

// Result reports the outcome of one ingestion event. Batch outcomes are
// part of the return value, not only logs, so callers can re-drive failed
// batches.
type Result struct {
	EventID         string
	Object          source.ObjectRef
	TotalRecords    int
	TotalBatches    int
	UpsertedBatches int
	FailedBatches   []FailedBatch
	Duration        time.Duration
}

// Pipeline processes ingestion events.
type Pipeline struct {
	fetcher   ObjectFetcher
	provider  embedding.Provider
	store     Upserter
	batchSize int
	workers   int
	logger    *slog.Logger
}

// New creates a pipeline. batchSize <= 0 falls back to DefaultBatchSize;
// workers < 1 falls back to sequential processing.
func New(fetcher ObjectFetcher, provider embedding.Provider, store Upserter, batchSize, workers int, logger *slog.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:   fetcher,
		provider:  provider,
		store:     store,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger,
	}
}

// Run processes one uploaded object. Fetch and parse failures abort the
// event. Batch failures (embedding or upsert) are collected in the result
// and do not stop sibling batches: batches are independent units of work,
// and partial success is an accepted terminal outcome. Re-driving the
// event is safe because all writes are upserts keyed by record id.
func (p *Pipeline) Run(ctx context.Context, ref source.ObjectRef) (*Result, error) {
	start := time.Now()
	result := &Result{
		EventID: uuid.New().String(),
		Object:  ref,
	}
	logger := p.logger.With("event", result.EventID, "object", ref.String())

	content, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch object: %w", err)
	}
	logger.Info("Fetched object", "bytes", len(content))

	records, err := record.ParseLines(content)
	if err != nil {
		return nil, fmt.Errorf("parse records: %w", err)
	}
	result.TotalRecords = len(records)

	batches := SplitBatches(records, p.batchSize)
	result.TotalBatches = len(batches)
	logger.Info("Parsed records", "records", len(records), "batches", len(batches))

	if p.workers > 1 && len(batches) > 1 {
		err = p.runConcurrent(ctx, logger, batches, result)
	} else {
		err = p.runSequential(ctx, logger, batches, result)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	logger.Info("Ingestion complete",
		"upserted", result.UpsertedBatches,
		"failed", len(result.FailedBatches),
		"duration", result.Duration,
	)
	return result, nil
}

// RunEvent processes every object referenced by a trigger event, in
// order, each as its own ingestion unit with its own result.
func (p *Pipeline) RunEvent(ctx context.Context, refs []source.ObjectRef) ([]*Result, error) {
	results := make([]*Result, 0, len(refs))
	for _, ref := range refs {
		result, err := p.Run(ctx, ref)
		if err != nil {
			return results, fmt.Errorf("object %s: %w", ref, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *Pipeline) runSequential(ctx context.Context, logger *slog.Logger, batches [][]record.IngestRecord, result *Result) error {
	for i, batch := range batches {
		outcome := p.processBatch(ctx, logger, i, batch)
		if outcome != nil {
			result.FailedBatches = append(result.FailedBatches, *outcome)
			continue
		}
		result.UpsertedBatches++
	}
	return nil
}

// runConcurrent upserts batches on a bounded worker pool. Failures are
// still collected per batch without cancelling siblings; only completion
// order differs from the sequential path.
func (p *Pipeline) runConcurrent(ctx context.Context, logger *slog.Logger, batches [][]record.IngestRecord, result *Result) error {
	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			outcome := p.processBatch(ctx, logger, i, batch)
			mu.Lock()
			defer mu.Unlock()
			if outcome != nil {
				result.FailedBatches = append(result.FailedBatches, *outcome)
				return
			}
			result.UpsertedBatches++
		}); err != nil {
			wg.Done()
			mu.Lock()
			result.FailedBatches = append(result.FailedBatches, FailedBatch{
				Index:  i,
				Start:  i * p.batchSize,
				End:    i*p.batchSize + len(batch),
				Reason: fmt.Sprintf("submit to worker pool: %v", err),
			})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.Slice(result.FailedBatches, func(a, b int) bool {
		return result.FailedBatches[a].Index < result.FailedBatches[b].Index
	})
	return nil
}

// processBatch embeds every record of one batch in order and writes the
// batch as a single bulk upsert. Returns nil on success.
func (p *Pipeline) processBatch(ctx context.Context, logger *slog.Logger, index int, batch []record.IngestRecord) *FailedBatch {
	start := index * p.batchSize
	fail := func(err error) *FailedBatch {
		logger.Warn("Batch failed",
			"batch", index,
			"start", start,
			"end", start+len(batch),
			"error", err,
		)
		return &FailedBatch{
			Index:  index,
			Start:  start,
			End:    start + len(batch),
			Reason: err.Error(),
		}
	}

	docs := make([]search.Document, len(batch))
	for i, rec := range batch {
		vector, err := p.provider.Embed(ctx, rec.Text)
		if err != nil {
			return fail(fmt.Errorf("embed record %s: %w", rec.ID, err))
		}
		docs[i] = search.Document{
			ID:        rec.ID,
			Text:      rec.Text,
			Question:  rec.Meta.Question,
			Answer:    rec.Meta.Answer,
			Context:   rec.Meta.Context,
			Embedding: vector,
		}
	}

	if err := p.store.BulkUpsert(ctx, docs); err != nil {
		return fail(err)
	}

	logger.Debug("Upserted batch", "batch", index, "records", len(batch))
	return nil
}

package pipeline

import "github.com/bull/rag-ingest/internal/record"

// SplitBatches groups records into contiguous batches of at most size,
// preserving input order. The last batch may be smaller. Pure function:
// no reordering, no merging.
func SplitBatches(records []record.IngestRecord, size int) [][]record.IngestRecord {
	if size <= 0 || len(records) == 0 {
		return nil
	}

	batches := make([][]record.IngestRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end])
	}
	return batches
}

package pipeline

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-ingest/internal/record"
)

func makeRecords(n int) []record.IngestRecord {
	records := make([]record.IngestRecord, n)
	for i := range records {
		records[i] = record.IngestRecord{ID: "record-" + strconv.Itoa(i)}
	}
	return records
}

func TestSplitBatches(t *testing.T) {
	tests := []struct {
		name        string
		records     int
		size        int
		wantBatches int
	}{
		{"empty", 0, 50, 0},
		{"single record", 1, 50, 1},
		{"one short of full", 49, 50, 1},
		{"exactly full", 50, 50, 1},
		{"one over", 51, 50, 2},
		{"two full", 100, 50, 2},
		{"two full plus one", 101, 50, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := makeRecords(tt.records)
			batches := SplitBatches(records, tt.size)
			require.Len(t, batches, tt.wantBatches)

			// All but possibly the last batch have exact size, none empty.
			for i, batch := range batches {
				assert.NotEmpty(t, batch)
				if i < len(batches)-1 {
					assert.Len(t, batch, tt.size)
				} else {
					assert.LessOrEqual(t, len(batch), tt.size)
				}
			}

			// Concatenation in order equals the input sequence.
			var flat []record.IngestRecord
			for _, batch := range batches {
				flat = append(flat, batch...)
			}
			require.Len(t, flat, len(records))
			for i := range records {
				assert.Equal(t, records[i], flat[i])
			}
		})
	}
}

func TestSplitBatchesInvalidSize(t *testing.T) {
	assert.Nil(t, SplitBatches(makeRecords(10), 0))
	assert.Nil(t, SplitBatches(makeRecords(10), -1))
}

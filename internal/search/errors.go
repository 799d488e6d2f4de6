package search

import (
	"errors"
	"fmt"
)

var (
	ErrStoreUnreachable  = errors.New("vector store unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrBootstrap         = errors.New("index bootstrap failed")
)

// UpsertError reports a bulk write rejected by the store. StatusCode is 0
// when the request never got a response (transport error, timeout).
type UpsertError struct {
	StatusCode int
	Message    string
}

func (e *UpsertError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("bulk upsert failed: %s", e.Message)
	}
	return fmt.Sprintf("bulk upsert rejected: status %d: %s", e.StatusCode, e.Message)
}

// Package embedding turns record text into fixed-length vectors.
package embedding

import (
	"context"
	"errors"
)

const (
	// Dimension is the vector size for text-embedding-3-small. It matches
	// search.VectorDimension; the index rejects anything else at write time.
	Dimension = 1536

	// MaxInputChars is the input-length ceiling enforced before calling the
	// external provider.
	MaxInputChars = 8000
)

// ErrProvider wraps any embedding failure: non-success HTTP status,
// malformed response body, or a response with no usable vector. The
// failure is scoped to the record being embedded.
var ErrProvider = errors.New("embedding provider error")

// Provider produces an embedding vector for a piece of text. The two
// implementations (OpenAI, mock) are interchangeable; selection happens
// once at startup from configuration.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

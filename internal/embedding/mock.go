package embedding

import (
	"context"
	"math"
)

// MockProvider produces deterministic pseudo-vectors without any network
// call, for offline development and tests. Component i of the vector is
// sin((i + seed) * 0.1) with seed = len(text) mod 97, so identical text
// always yields a bit-identical vector.
type MockProvider struct{}

// NewMockProvider creates a mock provider.
func NewMockProvider() *MockProvider { return &MockProvider{} }

// Embed returns the deterministic pseudo-vector for text.
func (*MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	seed := len(text) % 97
	vector := make([]float32, Dimension)
	for i := range vector {
		vector[i] = float32(math.Sin(float64(i+seed) * 0.1))
	}
	return vector, nil
}

// Dimension returns the vector size, matching the real provider.
func (*MockProvider) Dimension() int { return Dimension }

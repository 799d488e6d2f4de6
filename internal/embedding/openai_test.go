package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

func embeddingResponse(dim int) string {
	components := make([]string, dim)
	for i := range components {
		components[i] = "0.5"
	}
	return fmt.Sprintf(
		`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[%s]}],"model":"text-embedding-3-small","usage":{"prompt_tokens":1,"total_tokens":1}}`,
		strings.Join(components, ","),
	)
}

func TestOpenAIProviderEmbed(t *testing.T) {
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, embeddingResponse(Dimension))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "text-embedding-3-small")
	vector, err := provider.Embed(context.Background(), "What is X?")
	require.NoError(t, err)

	assert.Len(t, vector, Dimension)
	assert.Equal(t, float32(0.5), vector[0])
	assert.Equal(t, "What is X?", got.Input)
	assert.Equal(t, "text-embedding-3-small", got.Model)
}

func TestOpenAIProviderTruncatesInput(t *testing.T) {
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, embeddingResponse(Dimension))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "")
	_, err := provider.Embed(context.Background(), strings.Repeat("x", MaxInputChars+500))
	require.NoError(t, err)

	assert.Len(t, got.Input, MaxInputChars)
}

func TestOpenAIProviderNoVectorInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[],"model":"text-embedding-3-small","usage":{"prompt_tokens":0,"total_tokens":0}}`)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "")
	_, err := provider.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "no embedding")
}

func TestOpenAIProviderServerErrorIsPermanent(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "")
	_, err := provider.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Equal(t, 1, calls, "non-429 errors are not retried")
}

func TestOpenAIProviderRetriesRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, embeddingResponse(Dimension))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", server.URL, "")
	vector, err := provider.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vector, Dimension)
	assert.Equal(t, 2, calls)
}

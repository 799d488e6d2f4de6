// Package search writes embedded records to the vector index over its
// REST data plane and bootstraps the index schema.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 4096

// Client talks to one index (namespace) of the vector store.
type Client struct {
	endpoint   string
	index      string
	apiKey     string
	apiVersion string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the index at endpoint. Every call is
// bounded by timeout.
func NewClient(endpoint, index, apiKey, apiVersion string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		index:      index,
		apiKey:     apiKey,
		apiVersion: apiVersion,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Index returns the namespace this client writes to.
func (c *Client) Index() string { return c.index }

func (c *Client) setHeaders(req *http.Request, contentType string) {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Version", c.apiVersion)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
}

// BulkUpsert writes one batch of documents as a single newline-delimited
// JSON request. Every embedding is validated against VectorDimension
// before anything is sent; a mismatch is a hard failure, not retryable.
// A rejected or failed write returns *UpsertError. There is no automatic
// retry: the write is at-most-once per batch, and callers re-drive the
// whole event when they need stronger guarantees (safe, since upsert by
// id overwrites).
func (c *Client) BulkUpsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	for i, doc := range docs {
		if len(doc.Embedding) != VectorDimension {
			return fmt.Errorf("%w: document %d (%s) has %d dimensions, expected %d",
				ErrDimensionMismatch, i, doc.ID, len(doc.Embedding), VectorDimension)
		}
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
	}

	url := fmt.Sprintf("%s/v1/indexes/%s/_bulk", c.endpoint, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return fmt.Errorf("build upsert request: %w", err)
	}
	c.setHeaders(req, "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpsertError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpsertError{
			StatusCode: resp.StatusCode,
			Message:    readErrorBody(resp.Body),
		}
	}

	c.logger.Debug("Upserted batch", "index", c.index, "documents", len(docs))
	return nil
}

// EnsureIndex creates the index with the default schema if it does not
// exist. An "already exists" rejection counts as success: bootstrap runs
// on every deployment and must be idempotent.
func (c *Client) EnsureIndex(ctx context.Context) error {
	payload, err := json.Marshal(DefaultSchema())
	if err != nil {
		return fmt.Errorf("%w: encode schema: %v", ErrBootstrap, err)
	}

	url := fmt.Sprintf("%s/v1/indexes/%s", c.endpoint, c.index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrBootstrap, err)
	}
	c.setHeaders(req, "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBootstrap, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Info("Index created", "index", c.index, "dimension", VectorDimension)
		return nil
	}

	msg := readErrorBody(resp.Body)
	if indexExists(resp.StatusCode, msg) {
		c.logger.Info("Index already exists", "index", c.index)
		return nil
	}

	return fmt.Errorf("%w: status %d: %s", ErrBootstrap, resp.StatusCode, msg)
}

// Ping probes the store's root endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrStoreUnreachable, resp.StatusCode)
	}
	return nil
}

// PingWithRetry probes the store with exponential backoff, for use before
// bootstrap when the store may still be coming up.
func (c *Client) PingWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return c.Ping(ctx)
	}, backoff.WithContext(b, ctx))
}

// indexExists reports whether an error response means the index is
// already there.
func indexExists(status int, body string) bool {
	if status != http.StatusBadRequest && status != http.StatusConflict {
		return false
	}
	return strings.Contains(body, "resource_already_exists_exception") ||
		strings.Contains(body, "already exists")
}

func readErrorBody(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(data))
}

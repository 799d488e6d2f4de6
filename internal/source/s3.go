package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the slice of the S3 client the reader uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Reader fetches uploaded objects from object storage.
type Reader struct {
	client  ObjectAPI
	timeout time.Duration
	logger  *slog.Logger
}

// NewReader creates a reader over the given object storage client.
// Each fetch is bounded by timeout.
func NewReader(client ObjectAPI, timeout time.Duration, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

// NewS3Client builds an S3 client from the ambient AWS configuration
// (environment, shared config, instance role).
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Fetch returns the full content of the referenced object as a UTF-8
// string. Any failure (not found, access denied, transient network error,
// timeout) is wrapped in ErrSourceUnavailable and is fatal for the
// ingestion event: there is no partial processing without the source.
func (r *Reader) Fetch(ctx context.Context, ref ObjectRef) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", ErrSourceUnavailable, ref, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, ref, err)
	}

	r.logger.Debug("Fetched object", "object", ref.String(), "bytes", len(data))
	return string(data), nil
}

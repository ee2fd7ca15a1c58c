package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"duck-commerce/internal/config"
	"duck-commerce/internal/domain"
)

var _ domain.DatasetProvider = (*GCS)(nil)

// GCS reads source files from a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a GCS provider. Without GCS_KEY_FILE the client falls back to
// application default credentials.
func NewGCS(ctx context.Context, cfg *config.Config) (*GCS, error) {
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}

	var opts []option.ClientOption
	if cfg.GCSKeyFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.GCSKeyFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return &GCS{client: client, bucket: cfg.GCSBucket, prefix: cfg.DatasetPrefix}, nil
}

// Open streams the object.
func (p *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	key := objectKey(p.prefix, name)
	r, err := p.client.Bucket(p.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", p.bucket, key, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("read gs://%s/%s: %w", p.bucket, key, err)
	}
	return r, nil
}

// Describe returns the bucket URI.
func (p *GCS) Describe() string {
	return "gs://" + objectKey(p.bucket, p.prefix)
}

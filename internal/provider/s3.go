package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"duck-commerce/internal/config"
	"duck-commerce/internal/domain"
)

var _ domain.DatasetProvider = (*S3)(nil)

// S3 reads source files from an S3-compatible bucket.
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 provider with static credentials and path-style
// addressing, which S3-compatible stores require.
func NewS3(cfg *config.Config) (*S3, error) {
	if !cfg.HasS3Config() {
		return nil, fmt.Errorf("S3 config is incomplete")
	}

	client := s3.New(s3.Options{
		Region: *cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*cfg.S3KeyID, *cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpointURL(*cfg.S3Endpoint)),
		UsePathStyle: true,
	})

	return &S3{client: client, bucket: *cfg.S3Bucket, prefix: cfg.DatasetPrefix}, nil
}

// Open streams the object body.
func (p *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	key := objectKey(p.prefix, name)
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("s3://%s/%s: %w", p.bucket, key, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", p.bucket, key, err)
	}
	return out.Body, nil
}

// Describe returns the bucket URI.
func (p *S3) Describe() string {
	return "s3://" + objectKey(p.bucket, p.prefix)
}

// endpointURL adds an https scheme to bare host endpoints.
func endpointURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// Package provider resolves raw dataset files from a local directory or an
// object store (S3-compatible, GCS, Azure Blob).
package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"duck-commerce/internal/config"
	"duck-commerce/internal/domain"
)

// Compile-time checks.
var (
	_ domain.DatasetProvider = (*Local)(nil)
	_ domain.DatasetProvider = (*Caching)(nil)
)

// Cleaner is implemented by providers that keep local state between runs.
type Cleaner interface {
	Cleanup() error
}

// New builds the provider selected by cfg.DatasetSource. Remote backends are
// wrapped in a Caching provider rooted at cfg.DatasetCacheDir.
func New(ctx context.Context, cfg *config.Config) (domain.DatasetProvider, error) {
	var remote domain.DatasetProvider
	var err error
	switch cfg.DatasetSource {
	case config.SourceLocal, "":
		return NewLocal(cfg.DatasetDir), nil
	case config.SourceS3:
		remote, err = NewS3(cfg)
	case config.SourceGCS:
		remote, err = NewGCS(ctx, cfg)
	case config.SourceAzure:
		remote, err = NewAzure(cfg)
	default:
		return nil, fmt.Errorf("unsupported dataset source %q", cfg.DatasetSource)
	}
	if err != nil {
		return nil, err
	}
	return NewCaching(remote, cfg.DatasetCacheDir), nil
}

// Local serves files from a directory.
type Local struct {
	dir string
}

// NewLocal creates a provider rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{dir: dir}
}

// Open opens dir/name.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(l.dir, name)
	f, err := os.Open(p) //nolint:gosec // name is validated above
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", p, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// Describe returns "local:<dir>".
func (l *Local) Describe() string {
	return "local:" + l.dir
}

// validateName rejects anything that is not a plain file name.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("invalid source file name %q", name)
	}
	return nil
}

// objectKey joins the configured prefix and a file name.
func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

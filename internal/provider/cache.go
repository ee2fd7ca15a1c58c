package provider

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"duck-commerce/internal/domain"
)

// Caching keeps a local copy of every file fetched from a remote provider so
// repeated runs do not download the dataset again.
type Caching struct {
	inner domain.DatasetProvider
	dir   string
}

// NewCaching wraps inner with a cache rooted at dir.
func NewCaching(inner domain.DatasetProvider, dir string) *Caching {
	return &Caching{inner: inner, dir: dir}
}

// Open serves name from the cache, fetching it from the inner provider on a miss.
func (c *Caching) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	p := filepath.Join(c.dir, name)
	if f, err := os.Open(p); err == nil { //nolint:gosec // name is validated above
		return f, nil
	}

	if err := c.fetch(ctx, name, p); err != nil {
		return nil, err
	}
	f, err := os.Open(p) //nolint:gosec // name is validated above
	if err != nil {
		return nil, fmt.Errorf("open cached %s: %w", p, err)
	}
	return f, nil
}

func (c *Caching) fetch(ctx context.Context, name, dst string) error {
	src, err := c.inner.Open(ctx, name)
	if err != nil {
		return err
	}
	defer src.Close() //nolint:errcheck

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, name+".*.part")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("download %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache file: %w", err)
	}
	return nil
}

// Describe returns the inner description and the cache location.
func (c *Caching) Describe() string {
	return c.inner.Describe() + " (cached in " + c.dir + ")"
}

// Cleanup removes the cache directory.
func (c *Caching) Cleanup() error {
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("remove dataset cache: %w", err)
	}
	return nil
}

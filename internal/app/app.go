// Package app wires configuration, stores and services into the two
// runnable halves of duck-commerce: the batch loader and the dashboard.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"duck-commerce/internal/cache"
	"duck-commerce/internal/config"
	internaldb "duck-commerce/internal/db"
	"duck-commerce/internal/db/repository"
	"duck-commerce/internal/domain"
	"duck-commerce/internal/engine"
	"duck-commerce/internal/provider"
	"duck-commerce/internal/service/ingestion"
	"duck-commerce/internal/service/query"
)

// Deps holds what main() provides.
type Deps struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// openMetastore opens the run history. A broken metastore never blocks
// ingestion or the dashboard, so failures are logged and nil is returned.
func openMetastore(cfg *config.Config, logger *slog.Logger) (*internaldb.Metastore, *repository.RunRepo) {
	if cfg.MetaDBPath == "" {
		return nil, nil
	}
	meta, err := internaldb.OpenMetastore(cfg.MetaDBPath)
	if err != nil {
		logger.Warn("ingestion metastore unavailable; run history disabled", "path", cfg.MetaDBPath, "error", err)
		return nil, nil
	}
	return meta, repository.NewRunRepo(meta.Write, meta.Read)
}

// RunIngestion loads every configured source file into the DuckDB store and
// records the run. The returned error covers setup failures only; per-file
// outcomes are in the Report.
func RunIngestion(ctx context.Context, deps Deps) (*domain.Report, error) {
	cfg, logger := deps.Cfg, deps.Logger

	files, err := cfg.Sources()
	if err != nil {
		return nil, fmt.Errorf("load source list: %w", err)
	}

	p, err := provider.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create dataset provider: %w", err)
	}

	store, err := engine.OpenStore(cfg.DuckDBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close() //nolint:errcheck

	opts := []ingestion.Option{ingestion.WithCleanup(cfg.IngestCleanup)}
	meta, runs := openMetastore(cfg, logger)
	if meta != nil {
		defer meta.Close() //nolint:errcheck
		opts = append(opts, ingestion.WithRunRepository(runs))
	}

	return ingestion.NewLoader(store, p, logger, opts...).Ingest(ctx, files)
}

// Dashboard is the wired serving side: a lazily opened read-only store
// behind a result cache, plus the optional run history.
type Dashboard struct {
	Query     *query.Service
	Cached    *query.CachedService
	Cache     *cache.Cache
	Runs      domain.RunRepository
	Scheduler *cache.Scheduler

	meta *internaldb.Metastore
}

// NewDashboard wires the query side. The store is not opened here, so the
// dashboard starts even before the first ingestion.
func NewDashboard(deps Deps) (*Dashboard, error) {
	cfg, logger := deps.Cfg, deps.Logger

	c := cache.New(cfg.CacheTTL)
	svc := query.NewService(cfg.DuckDBPath, logger)
	d := &Dashboard{
		Query:  svc,
		Cached: query.NewCachedService(svc, c),
		Cache:  c,
	}

	if cfg.CacheInvalidateCron != "" {
		s, err := cache.NewScheduler(cfg.CacheInvalidateCron, c, logger)
		if err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("cache invalidation schedule: %w", err)
		}
		d.Scheduler = s
	}

	meta, runs := openMetastore(cfg, logger)
	if meta != nil {
		d.meta = meta
		d.Runs = runs
	}
	return d, nil
}

// Close stops the scheduler and releases the stores.
func (d *Dashboard) Close() error {
	if d.Scheduler != nil {
		d.Scheduler.Stop()
	}
	var errs []error
	errs = append(errs, d.Query.Close())
	if d.meta != nil {
		errs = append(errs, d.meta.Close())
	}
	return errors.Join(errs...)
}

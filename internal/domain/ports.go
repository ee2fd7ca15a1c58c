package domain

import (
	"context"
	"io"
)

// DatasetProvider resolves raw source files by name.
// Implemented by the backends in internal/provider.
type DatasetProvider interface {
	// Open returns the raw bytes of a source file. Missing files must
	// produce an error wrapping ErrSourceNotFound.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Describe returns a human-readable location for log lines.
	Describe() string
}

// RunRepository persists ingestion run reports.
// Implemented by repository.RunRepo (SQLite metastore).
type RunRepository interface {
	Record(ctx context.Context, report *Report) error
	List(ctx context.Context, limit int) ([]IngestionRun, error)
	Get(ctx context.Context, id string) (*IngestionRun, error)
}

// AnalyticsQuerier is the read-only dashboard query surface.
// Implemented by query.Service and query.CachedService.
type AnalyticsQuerier interface {
	DateBounds(ctx context.Context) (DateBounds, error)
	AvailableRegions(ctx context.Context) ([]string, error)
	Overview(ctx context.Context, r DateRange, f RegionFilter) (OverviewMetrics, error)
	RevenueSeries(ctx context.Context, r DateRange, f RegionFilter) ([]RevenuePoint, error)
	PaymentMix(ctx context.Context, r DateRange, f RegionFilter) (PaymentMix, error)
	RevenueByRegion(ctx context.Context, r DateRange, f RegionFilter) ([]RegionRevenue, error)
	TopCustomers(ctx context.Context, r DateRange, f RegionFilter) ([]CustomerRevenue, error)
}

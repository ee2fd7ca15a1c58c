package query

import (
	"context"
	"fmt"
	"slices"

	"duck-commerce/internal/cache"
	"duck-commerce/internal/domain"
)

// Cache operation names.
const (
	OpDateBounds      = "date_bounds"
	OpRegions         = "regions"
	OpOverview        = "overview"
	OpRevenueSeries   = "revenue_series"
	OpPaymentMix      = "payment_mix"
	OpRevenueByRegion = "revenue_by_region"
	OpTopCustomers    = "top_customers"
)

// CachedService memoizes another AnalyticsQuerier. Results are keyed by
// operation, date range and region filter; errors are not cached. Slice
// results are copied on the way out so callers may modify what they get.
type CachedService struct {
	inner domain.AnalyticsQuerier
	cache *cache.Cache
}

var _ domain.AnalyticsQuerier = (*CachedService)(nil)

// NewCachedService wraps inner with c.
func NewCachedService(inner domain.AnalyticsQuerier, c *cache.Cache) *CachedService {
	return &CachedService{inner: inner, cache: c}
}

// Cache returns the underlying cache.
func (s *CachedService) Cache() *cache.Cache { return s.cache }

// Ready delegates to the wrapped service when it supports readiness checks.
func (s *CachedService) Ready(ctx context.Context) error {
	if r, ok := s.inner.(interface{ Ready(context.Context) error }); ok {
		return r.Ready(ctx)
	}
	return nil
}

func selectionKey(op string, r domain.DateRange, f domain.RegionFilter) cache.Key {
	return cache.Key{Op: op, Args: r.String() + "|" + f.Key()}
}

// load is the typed front of cache.Load.
func load[T any](ctx context.Context, c *cache.Cache, k cache.Key, fn func(context.Context) (T, error)) (T, error) {
	v, err := c.Load(ctx, k, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s has type %T", k, v)
	}
	return t, nil
}

func (s *CachedService) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	return load(ctx, s.cache, cache.Key{Op: OpDateBounds}, s.inner.DateBounds)
}

func (s *CachedService) AvailableRegions(ctx context.Context) ([]string, error) {
	regions, err := load(ctx, s.cache, cache.Key{Op: OpRegions}, s.inner.AvailableRegions)
	return slices.Clone(regions), err
}

func (s *CachedService) Overview(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.OverviewMetrics, error) {
	return load(ctx, s.cache, selectionKey(OpOverview, r, f), func(ctx context.Context) (domain.OverviewMetrics, error) {
		return s.inner.Overview(ctx, r, f)
	})
}

func (s *CachedService) RevenueSeries(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RevenuePoint, error) {
	points, err := load(ctx, s.cache, selectionKey(OpRevenueSeries, r, f), func(ctx context.Context) ([]domain.RevenuePoint, error) {
		return s.inner.RevenueSeries(ctx, r, f)
	})
	return slices.Clone(points), err
}

// PaymentMix ignores the region filter, so every filter shares one entry.
func (s *CachedService) PaymentMix(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.PaymentMix, error) {
	mix, err := load(ctx, s.cache, selectionKey(OpPaymentMix, r, nil), func(ctx context.Context) (domain.PaymentMix, error) {
		return s.inner.PaymentMix(ctx, r, f)
	})
	mix.Shares = slices.Clone(mix.Shares)
	return mix, err
}

func (s *CachedService) RevenueByRegion(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RegionRevenue, error) {
	regions, err := load(ctx, s.cache, selectionKey(OpRevenueByRegion, r, f), func(ctx context.Context) ([]domain.RegionRevenue, error) {
		return s.inner.RevenueByRegion(ctx, r, f)
	})
	return slices.Clone(regions), err
}

func (s *CachedService) TopCustomers(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.CustomerRevenue, error) {
	customers, err := load(ctx, s.cache, selectionKey(OpTopCustomers, r, f), func(ctx context.Context) ([]domain.CustomerRevenue, error) {
		return s.inner.TopCustomers(ctx, r, f)
	})
	return slices.Clone(customers), err
}

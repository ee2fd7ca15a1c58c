package query

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-commerce/internal/cache"
	"duck-commerce/internal/domain"
)

// countingQuerier records how often each operation reaches the store.
type countingQuerier struct {
	calls    atomic.Int64
	overview domain.OverviewMetrics
	err      error
}

func (q *countingQuerier) DateBounds(context.Context) (domain.DateBounds, error) {
	q.calls.Add(1)
	return domain.DateBounds{}, q.err
}

func (q *countingQuerier) AvailableRegions(context.Context) ([]string, error) {
	q.calls.Add(1)
	return []string{"SP"}, q.err
}

func (q *countingQuerier) Overview(context.Context, domain.DateRange, domain.RegionFilter) (domain.OverviewMetrics, error) {
	q.calls.Add(1)
	return q.overview, q.err
}

func (q *countingQuerier) RevenueSeries(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.RevenuePoint, error) {
	q.calls.Add(1)
	return nil, q.err
}

func (q *countingQuerier) PaymentMix(context.Context, domain.DateRange, domain.RegionFilter) (domain.PaymentMix, error) {
	q.calls.Add(1)
	return domain.PaymentMix{}, q.err
}

func (q *countingQuerier) RevenueByRegion(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.RegionRevenue, error) {
	q.calls.Add(1)
	return nil, q.err
}

func (q *countingQuerier) TopCustomers(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.CustomerRevenue, error) {
	q.calls.Add(1)
	return nil, q.err
}

func TestCachedService_HitsAndKeys(t *testing.T) {
	t.Parallel()
	inner := &countingQuerier{overview: domain.OverviewMetrics{Orders: 3}}
	svc := NewCachedService(inner, cache.New(0))
	ctx := context.Background()
	may := dateRange(t, "2017-05-01", "2017-05-31")
	june := dateRange(t, "2017-06-01", "2017-06-30")

	for range 3 {
		m, err := svc.Overview(ctx, may, domain.NewRegionFilter("SP"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), m.Orders)
	}
	assert.Equal(t, int64(1), inner.calls.Load())

	// Equivalent filters share an entry.
	_, err := svc.Overview(ctx, may, domain.NewRegionFilter(" sp ", "SP"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), inner.calls.Load())

	_, err = svc.Overview(ctx, june, domain.NewRegionFilter("SP"))
	require.NoError(t, err)
	_, err = svc.Overview(ctx, may, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inner.calls.Load())

	// Payment mix ignores the filter, so it is cached once per range.
	_, err = svc.PaymentMix(ctx, may, nil)
	require.NoError(t, err)
	_, err = svc.PaymentMix(ctx, may, domain.NewRegionFilter("RJ"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), inner.calls.Load())

	stats := svc.Cache().Stats()
	assert.Equal(t, int64(4), stats.Misses)
	assert.Equal(t, int64(4), stats.Hits)
}

func TestCachedService_Invalidate(t *testing.T) {
	t.Parallel()
	inner := &countingQuerier{}
	c := cache.New(0)
	svc := NewCachedService(inner, c)
	ctx := context.Background()

	_, err := svc.AvailableRegions(ctx)
	require.NoError(t, err)
	_, err = svc.DateBounds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Invalidate(OpRegions))

	_, err = svc.AvailableRegions(ctx)
	require.NoError(t, err)
	_, err = svc.DateBounds(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inner.calls.Load())

	assert.Equal(t, 2, c.InvalidateAll())
}

func TestCachedService_ErrorsNotCached(t *testing.T) {
	t.Parallel()
	inner := &countingQuerier{err: errors.New("boom")}
	svc := NewCachedService(inner, cache.New(0))
	r := dateRange(t, "2017-05-01", "2017-05-31")

	for range 2 {
		_, err := svc.TopCustomers(context.Background(), r, nil)
		require.Error(t, err)
	}
	assert.Equal(t, int64(2), inner.calls.Load())
	assert.Equal(t, 0, svc.Cache().Len())
}

func TestCachedService_Ready(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewCachedService(&countingQuerier{}, cache.New(0)).Ready(context.Background()))

	svc := NewCachedService(newSeededService(t), cache.New(0))
	assert.NoError(t, svc.Ready(context.Background()))
}

func TestCachedService_ReturnsCopies(t *testing.T) {
	t.Parallel()
	inner := &countingQuerier{}
	svc := NewCachedService(inner, cache.New(0))
	ctx := context.Background()

	regions, err := svc.AvailableRegions(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"SP"}, regions)
	regions[0] = "XX"

	again, err := svc.AvailableRegions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"SP"}, again)
	assert.Equal(t, int64(1), inner.calls.Load())
}

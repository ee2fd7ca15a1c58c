// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase.
package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"duck-commerce/internal/domain"
)

// === Analytics Querier Mock ===

// MockQuerier implements domain.AnalyticsQuerier for testing. Unset funcs
// return zero values; ReadyFn is consulted by Ready.
type MockQuerier struct {
	DateBoundsFn      func(ctx context.Context) (domain.DateBounds, error)
	RegionsFn         func(ctx context.Context) ([]string, error)
	OverviewFn        func(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.OverviewMetrics, error)
	RevenueSeriesFn   func(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RevenuePoint, error)
	PaymentMixFn      func(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.PaymentMix, error)
	RevenueByRegionFn func(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RegionRevenue, error)
	TopCustomersFn    func(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.CustomerRevenue, error)
	ReadyFn           func(ctx context.Context) error

	mu    sync.Mutex
	Calls []string
}

func (m *MockQuerier) record(op string) {
	m.mu.Lock()
	m.Calls = append(m.Calls, op)
	m.mu.Unlock()
}

// CallCount returns how often op was invoked.
func (m *MockQuerier) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// DateBounds implements the interface method for testing.
func (m *MockQuerier) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	m.record("DateBounds")
	if m.DateBoundsFn != nil {
		return m.DateBoundsFn(ctx)
	}
	return domain.DateBounds{}, nil
}

// AvailableRegions implements the interface method for testing.
func (m *MockQuerier) AvailableRegions(ctx context.Context) ([]string, error) {
	m.record("AvailableRegions")
	if m.RegionsFn != nil {
		return m.RegionsFn(ctx)
	}
	return nil, nil
}

// Overview implements the interface method for testing.
func (m *MockQuerier) Overview(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.OverviewMetrics, error) {
	m.record("Overview")
	if m.OverviewFn != nil {
		return m.OverviewFn(ctx, r, f)
	}
	return domain.OverviewMetrics{}, nil
}

// RevenueSeries implements the interface method for testing.
func (m *MockQuerier) RevenueSeries(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RevenuePoint, error) {
	m.record("RevenueSeries")
	if m.RevenueSeriesFn != nil {
		return m.RevenueSeriesFn(ctx, r, f)
	}
	return nil, nil
}

// PaymentMix implements the interface method for testing.
func (m *MockQuerier) PaymentMix(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.PaymentMix, error) {
	m.record("PaymentMix")
	if m.PaymentMixFn != nil {
		return m.PaymentMixFn(ctx, r, f)
	}
	return domain.PaymentMix{}, nil
}

// RevenueByRegion implements the interface method for testing.
func (m *MockQuerier) RevenueByRegion(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RegionRevenue, error) {
	m.record("RevenueByRegion")
	if m.RevenueByRegionFn != nil {
		return m.RevenueByRegionFn(ctx, r, f)
	}
	return nil, nil
}

// TopCustomers implements the interface method for testing.
func (m *MockQuerier) TopCustomers(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.CustomerRevenue, error) {
	m.record("TopCustomers")
	if m.TopCustomersFn != nil {
		return m.TopCustomersFn(ctx, r, f)
	}
	return nil, nil
}

// Ready reports ReadyFn's result, or nil.
func (m *MockQuerier) Ready(ctx context.Context) error {
	if m.ReadyFn != nil {
		return m.ReadyFn(ctx)
	}
	return nil
}

// FailAll makes every query return err.
func (m *MockQuerier) FailAll(err error) {
	m.DateBoundsFn = func(context.Context) (domain.DateBounds, error) { return domain.DateBounds{}, err }
	m.RegionsFn = func(context.Context) ([]string, error) { return nil, err }
	m.OverviewFn = func(context.Context, domain.DateRange, domain.RegionFilter) (domain.OverviewMetrics, error) {
		return domain.OverviewMetrics{}, err
	}
	m.RevenueSeriesFn = func(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.RevenuePoint, error) {
		return nil, err
	}
	m.PaymentMixFn = func(context.Context, domain.DateRange, domain.RegionFilter) (domain.PaymentMix, error) {
		return domain.PaymentMix{}, err
	}
	m.RevenueByRegionFn = func(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.RegionRevenue, error) {
		return nil, err
	}
	m.TopCustomersFn = func(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.CustomerRevenue, error) {
		return nil, err
	}
	m.ReadyFn = func(context.Context) error { return err }
}

// === Run Repository Mock ===

// MockRunRepo implements domain.RunRepository for testing.
type MockRunRepo struct {
	RecordFn func(ctx context.Context, report *domain.Report) error
	ListFn   func(ctx context.Context, limit int) ([]domain.IngestionRun, error)
	GetFn    func(ctx context.Context, id string) (*domain.IngestionRun, error)
	Reports  []*domain.Report // collected reports for assertions
}

// Record implements the interface method for testing.
func (m *MockRunRepo) Record(ctx context.Context, report *domain.Report) error {
	if m.RecordFn != nil {
		if err := m.RecordFn(ctx, report); err != nil {
			return err
		}
	}
	m.Reports = append(m.Reports, report)
	return nil
}

// List implements the interface method for testing.
func (m *MockRunRepo) List(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit)
	}
	panic("unexpected call to MockRunRepo.List")
}

// Get implements the interface method for testing.
func (m *MockRunRepo) Get(ctx context.Context, id string) (*domain.IngestionRun, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, id)
	}
	panic("unexpected call to MockRunRepo.Get")
}

// === Dataset Provider Mock ===

// MapProvider implements domain.DatasetProvider over in-memory files.
type MapProvider struct {
	Files map[string]string
	// Errs forces Open to fail for a name.
	Errs map[string]error
}

// Open implements the interface method for testing.
func (p *MapProvider) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err, ok := p.Errs[name]; ok {
		return nil, err
	}
	body, ok := p.Files[name]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// Describe implements the interface method for testing.
func (p *MapProvider) Describe() string { return "memory" }

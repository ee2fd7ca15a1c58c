package ui

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-commerce/internal/cache"
	"duck-commerce/internal/domain"
	"duck-commerce/internal/testutil"
)

var testBounds = domain.DateBounds{
	Min: time.Date(2016, 9, 4, 0, 0, 0, 0, time.UTC),
	Max: time.Date(2018, 10, 17, 0, 0, 0, 0, time.UTC),
}

func newMockQuerier() *testutil.MockQuerier {
	return &testutil.MockQuerier{
		DateBoundsFn: func(context.Context) (domain.DateBounds, error) { return testBounds, nil },
		RegionsFn:    func(context.Context) ([]string, error) { return []string{"MG", "RJ", "SP"}, nil },
		OverviewFn: func(context.Context, domain.DateRange, domain.RegionFilter) (domain.OverviewMetrics, error) {
			return domain.OverviewMetrics{Orders: 2, Items: 3, Revenue: 1234.5, AvgItemRevenue: 411.5, ItemValue: 1100, FreightValue: 134.5}, nil
		},
		PaymentMixFn: func(context.Context, domain.DateRange, domain.RegionFilter) (domain.PaymentMix, error) {
			return domain.PaymentMix{Shares: []domain.PaymentShare{{PaymentType: "credit_card", Value: 900}, {PaymentType: "boleto", Value: 100}}}, nil
		},
		RevenueByRegionFn: func(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.RegionRevenue, error) {
			return []domain.RegionRevenue{{Region: "SP", Revenue: 1000}, {Region: "RJ", Revenue: 234.5}}, nil
		},
		TopCustomersFn: func(context.Context, domain.DateRange, domain.RegionFilter) ([]domain.CustomerRevenue, error) {
			return []domain.CustomerRevenue{
				{CustomerUniqueID: "u1", City: "sao paulo", Region: "SP", Orders: 2, Revenue: 1000},
				{CustomerUniqueID: "u2", City: "rio, centro", Region: "RJ", Orders: 1, Revenue: 234.5},
			}, nil
		},
	}
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	MountRoutes(r, h)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOverview_Renders(t *testing.T) {
	q := newMockQuerier()
	router := newTestRouter(NewHandler(q, nil, nil, discardLogger(), false))

	rr := get(t, router, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "R$ 1,234.50")
	assert.Contains(t, body, "credit_card (90.0%)")
	assert.Contains(t, body, `value="2016-09-04"`)
	assert.Contains(t, body, `value="2018-10-17"`)
	assert.Contains(t, body, "All regions")
	assert.NotContains(t, body, "payments are not linked")
	assert.Equal(t, 1, q.CallCount("Overview"))
	assert.Equal(t, 1, q.CallCount("PaymentMix"))
}

func TestOverview_PassesSelection(t *testing.T) {
	q := newMockQuerier()
	var gotRange domain.DateRange
	var gotRegions domain.RegionFilter
	q.OverviewFn = func(_ context.Context, r domain.DateRange, f domain.RegionFilter) (domain.OverviewMetrics, error) {
		gotRange, gotRegions = r, f
		return domain.OverviewMetrics{}, nil
	}
	router := newTestRouter(NewHandler(q, nil, nil, discardLogger(), false))

	rr := get(t, router, "/?start=2017-01-01&end=2017-01-31&region=sp&region=RJ,MG")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2017-01-01..2017-01-31", gotRange.String())
	assert.Equal(t, domain.RegionFilter{"MG", "RJ", "SP"}, gotRegions)
	assert.Contains(t, rr.Body.String(), "payments are not linked to customer regions")
}

func TestDashboard_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"store unavailable", "/", &domain.StoreUnavailableError{Path: "data/olist.duckdb", Reason: "database file does not exist"}, http.StatusServiceUnavailable, "duckc ingest"},
		{"store unavailable on customers", "/customers", &domain.StoreUnavailableError{Path: "x", Reason: "raw tables are missing"}, http.StatusServiceUnavailable, "No Data Yet"},
		{"schema mismatch", "/", &domain.SchemaMismatchError{Op: "overview", Err: errors.New("Binder Error: price")}, http.StatusInternalServerError, "Dataset Schema Changed"},
		{"other error", "/customers.csv", errors.New("boom"), http.StatusInternalServerError, "Unexpected Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &testutil.MockQuerier{}
			q.FailAll(tt.err)
			rr := get(t, newTestRouter(NewHandler(q, nil, nil, discardLogger(), false)), tt.target)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}

func TestOverview_InvalidRange(t *testing.T) {
	router := newTestRouter(NewHandler(newMockQuerier(), nil, nil, discardLogger(), false))

	for _, target := range []string{"/?start=2017-02-01&end=2017-01-01", "/?start=yesterday"} {
		rr := get(t, router, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "Invalid Request")
	}
}

func TestCustomers(t *testing.T) {
	router := newTestRouter(NewHandler(newMockQuerier(), nil, nil, discardLogger(), false))

	rr := get(t, router, "/customers?region=SP")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "u1")
	assert.Contains(t, body, "2 customers")
	assert.Contains(t, body, "/customers.csv?end=2018-10-17&amp;region=SP&amp;start=2016-09-04")
	assert.Contains(t, body, "data-show")
}

func TestCustomersCSV(t *testing.T) {
	router := newTestRouter(NewHandler(newMockQuerier(), nil, nil, discardLogger(), false))

	rr := get(t, router, "/customers.csv?start=2017-01-01&end=2017-12-31")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "top_customers_2017-01-01_2017-12-31.csv")

	records, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"customer_unique_id", "customer_city", "customer_state", "orders", "revenue"},
		{"u1", "sao paulo", "SP", "2", "1000.00"},
		{"u2", "rio, centro", "RJ", "1", "234.50"},
	}, records)
}

func TestRuns(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := &testutil.MockRunRepo{
		ListFn: func(context.Context, int) ([]domain.IngestionRun, error) {
			return []domain.IngestionRun{{ID: "run-1", StartedAt: started, FinishedAt: started.Add(2 * time.Second), Loaded: 8, Skipped: 1}}, nil
		},
		GetFn: func(_ context.Context, id string) (*domain.IngestionRun, error) {
			if id != "run-1" {
				return nil, domain.ErrNotFound("ingestion run %q not found", id)
			}
			return &domain.IngestionRun{ID: "run-1", StartedAt: started, FinishedAt: started, Loaded: 1, Skipped: 1, Files: []domain.IngestionFileRecord{
				{FileName: "olist_orders_dataset.csv", Table: "orders", Status: domain.FileLoaded, Rows: 10, Encoding: "utf-8", Leniency: "strict", Attempts: 2},
				{FileName: "olist_sellers_dataset.csv", Table: "sellers", Status: domain.FileSkipped, Reason: "source file not found"},
			}}, nil
		},
	}
	h := NewHandler(newMockQuerier(), runs, nil, discardLogger(), false)
	assert.Same(t, runs, h.RunRepo)
	router := newTestRouter(h)

	rr := get(t, router, "/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "run-1")
	assert.Contains(t, rr.Body.String(), "partial")

	rr = get(t, router, "/runs/run-1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "raw.orders")
	assert.Contains(t, rr.Body.String(), "source file not found")

	rr = get(t, router, "/runs/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRuns_NoMetastore(t *testing.T) {
	rr := get(t, newTestRouter(NewHandler(newMockQuerier(), nil, nil, discardLogger(), false)), "/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No ingestion runs recorded")
}

func TestInvalidateCache(t *testing.T) {
	c := cache.New(0)
	c.Put(cache.Key{Op: "overview", Args: "x"}, 1)
	c.Put(cache.Key{Op: "regions"}, 2)
	router := newTestRouter(NewHandler(newMockQuerier(), nil, c, discardLogger(), false))

	form := strings.NewReader(csrfFormField + "=tok")
	r := httptest.NewRequest(http.MethodPost, "/cache/invalidate", form)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", "http://example.com/customers?region=SP")
	r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, r)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/customers?region=SP", rr.Header().Get("Location"))
	assert.Equal(t, 0, c.Len())

	// Foreign referers are not followed.
	r = httptest.NewRequest(http.MethodPost, "/cache/invalidate", strings.NewReader(csrfFormField+"=tok"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.Header.Set("Referer", "https://evil.test/phish")
	r.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok"})
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, r)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	q := newMockQuerier()
	router := newTestRouter(NewHandler(q, nil, nil, discardLogger(), false))

	rr := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	q.ReadyFn = func(context.Context) error {
		return &domain.StoreUnavailableError{Path: "p", Reason: "missing"}
	}
	rr = get(t, router, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "unavailable")
}

func TestStaticAssets(t *testing.T) {
	rr := get(t, newTestRouter(NewHandler(newMockQuerier(), nil, nil, discardLogger(), false)), "/static/app.css")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), ".bar-fill")
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "R$ 0.00", formatMoney(0))
	assert.Equal(t, "R$ 1,234,567.89", formatMoney(1234567.891))
	assert.Equal(t, "-R$ 12.50", formatMoney(-12.5))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
}

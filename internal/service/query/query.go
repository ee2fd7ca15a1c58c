// Package query answers the dashboard's read-only analytics questions against
// the DuckDB store populated by the ingestion service.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"duck-commerce/internal/domain"
	"duck-commerce/internal/engine"
)

// RequiredTables are the raw tables every dashboard query reads.
var RequiredTables = []string{"customers", "order_items", "order_payments", "orders"}

// Service runs dashboard queries. The store is opened read-only on first use,
// so a dashboard can start before the first ingestion run.
type Service struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	db    *sql.DB
	owned bool
	open  func(string) (*sql.DB, error)
}

// NewService creates a Service over the DuckDB file at path.
func NewService(path string, logger *slog.Logger) *Service {
	return &Service{path: path, logger: logger, open: engine.OpenReadOnly, owned: true}
}

// NewServiceFromDB creates a Service over an already open database. The
// caller keeps ownership of db.
func NewServiceFromDB(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{path: "(attached)", logger: logger, db: db}
}

// Path returns the store location queries run against.
func (s *Service) Path() string { return s.path }

// Close releases the store if the Service opened it.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil || !s.owned {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// conn returns the open store, opening it if needed. Failed opens are not
// remembered so the next request retries once the file exists.
func (s *Service) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	db, err := s.open(s.path)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analytics store opened", "path", s.path)
	s.db = db
	return db, nil
}

// Ready reports whether the store exists and holds every required raw table.
func (s *Service) Ready(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tables, err := engine.ListTables(ctx, db, domain.RawSchema)
	if err != nil {
		return s.classify("ready", err)
	}
	have := make(map[string]bool, len(tables))
	for _, t := range tables {
		have[t] = true
	}
	var missing []string
	for _, t := range RequiredTables {
		if !have[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return &domain.StoreUnavailableError{
			Path:   s.path,
			Reason: "raw tables are missing: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// DateBounds returns the first and last purchase day in the orders table.
func (s *Service) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	db, err := s.conn()
	if err != nil {
		return domain.DateBounds{}, err
	}
	var lo, hi sql.NullTime
	if err := db.QueryRowContext(ctx, dateBoundsSQL).Scan(&lo, &hi); err != nil {
		return domain.DateBounds{}, s.classify("date bounds", err)
	}
	if !lo.Valid || !hi.Valid {
		return domain.DateBounds{}, domain.ErrNotFound("no orders with a purchase date")
	}
	return domain.DateBounds{Min: utcDay(lo.Time), Max: utcDay(hi.Time)}, nil
}

// AvailableRegions returns the distinct customer state codes, sorted.
func (s *Service) AvailableRegions(ctx context.Context) ([]string, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, regionsSQL)
	if err != nil {
		return nil, s.classify("regions", err)
	}
	defer rows.Close() //nolint:errcheck

	regions := []string{}
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, s.classify("regions", err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("regions", err)
	}
	return regions, nil
}

// Overview returns the headline KPIs for the selection.
func (s *Service) Overview(ctx context.Context, r domain.DateRange, f domain.RegionFilter) (domain.OverviewMetrics, error) {
	db, err := s.conn()
	if err != nil {
		return domain.OverviewMetrics{}, err
	}
	q, args := overviewSQL(r, f)
	var (
		m                            domain.OverviewMetrics
		revenue, avg, items, freight sql.NullFloat64
	)
	if err := db.QueryRowContext(ctx, q, args...).Scan(&m.Orders, &m.Items, &revenue, &avg, &items, &freight); err != nil {
		return domain.OverviewMetrics{}, s.classify("overview", err)
	}
	m.Revenue = revenue.Float64
	m.AvgItemRevenue = avg.Float64
	m.ItemValue = items.Float64
	m.FreightValue = freight.Float64
	return m, nil
}

// RevenueSeries returns daily revenue and order counts, ordered by day.
func (s *Service) RevenueSeries(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RevenuePoint, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	q, args := seriesSQL(r, f)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.classify("revenue series", err)
	}
	defer rows.Close() //nolint:errcheck

	points := []domain.RevenuePoint{}
	for rows.Next() {
		var (
			p       domain.RevenuePoint
			revenue sql.NullFloat64
		)
		if err := rows.Scan(&p.Day, &revenue, &p.Orders); err != nil {
			return nil, s.classify("revenue series", err)
		}
		p.Day = utcDay(p.Day)
		p.Revenue = revenue.Float64
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("revenue series", err)
	}
	return points, nil
}

// PaymentMix returns payment totals per payment type, largest first. The
// region filter is accepted for interface symmetry but not applied.
func (s *Service) PaymentMix(ctx context.Context, r domain.DateRange, _ domain.RegionFilter) (domain.PaymentMix, error) {
	db, err := s.conn()
	if err != nil {
		return domain.PaymentMix{}, err
	}
	q, args := paymentMixSQL(r)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.PaymentMix{}, s.classify("payment mix", err)
	}
	defer rows.Close() //nolint:errcheck

	mix := domain.PaymentMix{Shares: []domain.PaymentShare{}}
	for rows.Next() {
		var (
			sh    domain.PaymentShare
			value sql.NullFloat64
		)
		if err := rows.Scan(&sh.PaymentType, &value); err != nil {
			return domain.PaymentMix{}, s.classify("payment mix", err)
		}
		sh.Value = value.Float64
		mix.Shares = append(mix.Shares, sh)
	}
	if err := rows.Err(); err != nil {
		return domain.PaymentMix{}, s.classify("payment mix", err)
	}
	return mix, nil
}

// RevenueByRegion returns revenue per customer region, largest first.
func (s *Service) RevenueByRegion(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.RegionRevenue, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	q, args := regionRevenueSQL(r, f)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.classify("revenue by region", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.RegionRevenue{}
	for rows.Next() {
		var (
			rr      domain.RegionRevenue
			revenue sql.NullFloat64
		)
		if err := rows.Scan(&rr.Region, &revenue); err != nil {
			return nil, s.classify("revenue by region", err)
		}
		rr.Revenue = revenue.Float64
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("revenue by region", err)
	}
	return out, nil
}

// TopCustomers returns up to TopCustomersLimit customers by revenue.
func (s *Service) TopCustomers(ctx context.Context, r domain.DateRange, f domain.RegionFilter) ([]domain.CustomerRevenue, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	q, args := topCustomersSQL(r, f)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.classify("top customers", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.CustomerRevenue{}
	for rows.Next() {
		var (
			c        domain.CustomerRevenue
			city, st sql.NullString
			revenue  sql.NullFloat64
		)
		if err := rows.Scan(&c.CustomerUniqueID, &city, &st, &c.Orders, &revenue); err != nil {
			return nil, s.classify("top customers", err)
		}
		c.City, c.Region, c.Revenue = city.String, st.String, revenue.Float64
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("top customers", err)
	}
	return out, nil
}

// classify maps engine errors onto domain errors. A missing table means the
// store has not been populated; a missing column means the ingested files no
// longer match the queries.
func (s *Service) classify(op string, err error) error {
	if err == nil || domain.IsStoreUnavailable(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var de *duckdb.Error
	if errors.As(err, &de) {
		switch de.Type {
		case duckdb.ErrorTypeCatalog:
			return &domain.StoreUnavailableError{Path: s.path, Reason: "raw tables are missing: " + de.Msg}
		case duckdb.ErrorTypeBinder:
			return &domain.SchemaMismatchError{Op: op, Err: err}
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Catalog Error"):
		return &domain.StoreUnavailableError{Path: s.path, Reason: "raw tables are missing: " + msg}
	case strings.Contains(msg, "Binder Error"):
		return &domain.SchemaMismatchError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

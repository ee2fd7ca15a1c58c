package domain

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the wire format for dashboard dates.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of purchase days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both bounds to UTC days and validates their order.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: truncateDay(start), End: truncateDay(end)}
	if r.End.Before(r.Start) {
		return DateRange{}, ErrValidation("end date %s is before start date %s", r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses YYYY-MM-DD bounds.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, strings.TrimSpace(start))
	if err != nil {
		return DateRange{}, ErrValidation("invalid start date %q: want YYYY-MM-DD", start)
	}
	e, err := time.Parse(DateLayout, strings.TrimSpace(end))
	if err != nil {
		return DateRange{}, ErrValidation("invalid end date %q: want YYYY-MM-DD", end)
	}
	return NewDateRange(s, e)
}

// StartString returns the start bound as YYYY-MM-DD.
func (r DateRange) StartString() string { return r.Start.Format(DateLayout) }

// EndString returns the end bound as YYYY-MM-DD.
func (r DateRange) EndString() string { return r.End.Format(DateLayout) }

func (r DateRange) String() string { return r.StartString() + ".." + r.EndString() }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RegionFilter is a set of state codes. An empty filter means "all regions".
type RegionFilter []string

// NewRegionFilter upper-cases, trims, de-duplicates and sorts the codes.
func NewRegionFilter(codes ...string) RegionFilter {
	seen := make(map[string]struct{}, len(codes))
	out := make(RegionFilter, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// All reports whether the filter is the unfiltered sentinel.
func (f RegionFilter) All() bool { return len(f) == 0 }

// Key is a canonical representation usable in cache keys.
func (f RegionFilter) Key() string {
	if f.All() {
		return "*"
	}
	return strings.Join(f, ",")
}

// DateBounds is the global purchase-day range of the orders table.
type DateBounds struct {
	Min time.Time
	Max time.Time
}

// OverviewMetrics are the headline KPIs for a filter selection.
type OverviewMetrics struct {
	Orders         int64   `json:"orders"`
	Items          int64   `json:"items"`
	Revenue        float64 `json:"revenue"`
	AvgItemRevenue float64 `json:"avg_item_revenue"`
	ItemValue      float64 `json:"item_value"`
	FreightValue   float64 `json:"freight_value"`
}

// AOV is the average order value.
func (m OverviewMetrics) AOV() float64 {
	if m.Orders == 0 {
		return 0
	}
	return m.Revenue / float64(m.Orders)
}

// FreightShare is freight as a percentage of revenue.
func (m OverviewMetrics) FreightShare() float64 {
	if m.Revenue == 0 {
		return 0
	}
	return m.FreightValue / m.Revenue * 100
}

// RevenuePoint is one day of the revenue time series.
type RevenuePoint struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
	Orders  int64     `json:"orders"`
}

// PaymentShare is the total paid with one payment type.
type PaymentShare struct {
	PaymentType string  `json:"payment_type"`
	Value       float64 `json:"value"`
}

// PaymentMix holds payment totals. Payments are joined to orders only, so the
// region filter is not applied; RegionFilterApplied records that.
type PaymentMix struct {
	Shares              []PaymentShare `json:"shares"`
	RegionFilterApplied bool           `json:"region_filter_applied"`
}

// RegionRevenue is revenue attributed to one customer region.
type RegionRevenue struct {
	Region  string  `json:"region"`
	Revenue float64 `json:"revenue"`
}

// CustomerRevenue is one row of the top-customers table.
type CustomerRevenue struct {
	CustomerUniqueID string  `json:"customer_unique_id"`
	City             string  `json:"city"`
	Region           string  `json:"region"`
	Orders           int64   `json:"orders"`
	Revenue          float64 `json:"revenue"`
}

// Selection is a validated dashboard filter.
type Selection struct {
	Range   DateRange
	Regions RegionFilter
}

// ParseSelection builds a Selection from raw request values. Blank dates
// default to the store's bounds; region values may be repeated or
// comma-separated.
func ParseSelection(start, end string, regions []string, bounds DateBounds) (Selection, error) {
	if strings.TrimSpace(start) == "" {
		start = bounds.Min.Format(DateLayout)
	}
	if strings.TrimSpace(end) == "" {
		end = bounds.Max.Format(DateLayout)
	}
	r, err := ParseDateRange(start, end)
	if err != nil {
		return Selection{}, err
	}
	var codes []string
	for _, v := range regions {
		codes = append(codes, strings.Split(v, ",")...)
	}
	return Selection{Range: r, Regions: NewRegionFilter(codes...)}, nil
}

package api

import (
	"time"

	"duck-commerce/internal/domain"
)

// DateRangeDTO echoes the resolved selection range.
type DateRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SelectionDTO echoes the filters a response was computed for.
type SelectionDTO struct {
	Range   DateRangeDTO `json:"range"`
	Regions []string     `json:"regions"`
}

// BoundsResponse is returned by GET /bounds.
type BoundsResponse struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// RegionsResponse is returned by GET /regions.
type RegionsResponse struct {
	Regions []string `json:"regions"`
}

// OverviewResponse is returned by GET /overview.
type OverviewResponse struct {
	Selection    SelectionDTO `json:"selection"`
	Orders       int64        `json:"orders"`
	Items        int64        `json:"items"`
	Revenue      float64      `json:"revenue"`
	AvgItem      float64      `json:"avg_item_revenue"`
	AOV          float64      `json:"avg_order_value"`
	ItemValue    float64      `json:"item_value"`
	FreightValue float64      `json:"freight_value"`
	FreightShare float64      `json:"freight_share_pct"`
}

// SeriesPointDTO is one day of GET /series.
type SeriesPointDTO struct {
	Day     string  `json:"day"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

// SeriesResponse is returned by GET /series.
type SeriesResponse struct {
	Selection SelectionDTO     `json:"selection"`
	Points    []SeriesPointDTO `json:"points"`
}

// PaymentsResponse is returned by GET /payments.
type PaymentsResponse struct {
	Selection           SelectionDTO          `json:"selection"`
	Shares              []domain.PaymentShare `json:"shares"`
	RegionFilterApplied bool                  `json:"region_filter_applied"`
}

// RegionRevenueResponse is returned by GET /regions/revenue.
type RegionRevenueResponse struct {
	Selection SelectionDTO           `json:"selection"`
	Regions   []domain.RegionRevenue `json:"regions"`
}

// CustomersResponse is returned by GET /customers.
type CustomersResponse struct {
	Selection SelectionDTO             `json:"selection"`
	Limit     int                      `json:"limit"`
	Customers []domain.CustomerRevenue `json:"customers"`
}

// RunDTO is an ingestion run summary.
type RunDTO struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Loaded     int          `json:"loaded"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Files      []RunFileDTO `json:"files,omitempty"`
}

// RunFileDTO is one file outcome within a run.
type RunFileDTO struct {
	File     string `json:"file"`
	Table    string `json:"table"`
	Status   string `json:"status"`
	Rows     int64  `json:"rows"`
	Dropped  int    `json:"dropped"`
	Encoding string `json:"encoding,omitempty"`
	Leniency string `json:"leniency,omitempty"`
	Attempts int    `json:"attempts"`
	Reason   string `json:"reason,omitempty"`
}

// RunsResponse is returned by GET /runs.
type RunsResponse struct {
	Runs []RunDTO `json:"runs"`
}

func selectionToAPI(sel domain.Selection) SelectionDTO {
	regions := []string(sel.Regions)
	if regions == nil {
		regions = []string{}
	}
	return SelectionDTO{
		Range:   DateRangeDTO{Start: sel.Range.StartString(), End: sel.Range.EndString()},
		Regions: regions,
	}
}

func runToAPI(run domain.IngestionRun) RunDTO {
	out := RunDTO{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Loaded:     run.Loaded,
		Skipped:    run.Skipped,
		Failed:     run.Failed,
	}
	for _, f := range run.Files {
		out.Files = append(out.Files, RunFileDTO{
			File:     f.FileName,
			Table:    f.Table,
			Status:   string(f.Status),
			Rows:     f.Rows,
			Dropped:  f.Dropped,
			Encoding: f.Encoding,
			Leniency: f.Leniency,
			Attempts: f.Attempts,
			Reason:   f.Reason,
		})
	}
	return out
}

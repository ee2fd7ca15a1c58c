// Package api serves the dashboard queries as JSON under /api/v1.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"duck-commerce/internal/db/repository"
	"duck-commerce/internal/domain"
	"duck-commerce/internal/service/query"
)

// Handler implements the JSON API.
type Handler struct {
	query  domain.AnalyticsQuerier
	runs   domain.RunRepository
	logger *slog.Logger
}

// NewHandler creates a Handler. runs may be nil.
func NewHandler(q domain.AnalyticsQuerier, runs domain.RunRepository, logger *slog.Logger) *Handler {
	return &Handler{query: q, runs: runs, logger: logger}
}

// Routes returns the API router, to be mounted at /api/v1.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/bounds", h.Bounds)
	r.Get("/regions", h.Regions)
	r.Get("/regions/revenue", h.RevenueByRegion)
	r.Get("/overview", h.Overview)
	r.Get("/series", h.Series)
	r.Get("/payments", h.Payments)
	r.Get("/customers", h.Customers)
	r.Get("/runs", h.Runs)
	r.Get("/runs/{runID}", h.Run)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "no such endpoint"})
	})
	return r
}

func (h *Handler) selection(r *http.Request) (domain.Selection, error) {
	bounds, err := h.query.DateBounds(r.Context())
	if err != nil {
		return domain.Selection{}, err
	}
	q := r.URL.Query()
	return domain.ParseSelection(q.Get("start"), q.Get("end"), q["region"], bounds)
}

// Bounds returns the first and last purchase day in the store.
func (h *Handler) Bounds(w http.ResponseWriter, r *http.Request) {
	b, err := h.query.DateBounds(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BoundsResponse{
		Min: b.Min.Format(domain.DateLayout),
		Max: b.Max.Format(domain.DateLayout),
	})
}

// Regions lists the customer region codes.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.query.AvailableRegions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if regions == nil {
		regions = []string{}
	}
	writeJSON(w, http.StatusOK, RegionsResponse{Regions: regions})
}

// Overview returns the headline KPIs.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	m, err := h.query.Overview(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OverviewResponse{
		Selection:    selectionToAPI(sel),
		Orders:       m.Orders,
		Items:        m.Items,
		Revenue:      m.Revenue,
		AvgItem:      m.AvgItemRevenue,
		AOV:          m.AOV(),
		ItemValue:    m.ItemValue,
		FreightValue: m.FreightValue,
		FreightShare: m.FreightShare(),
	})
}

// Series returns daily revenue.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	points, err := h.query.RevenueSeries(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]SeriesPointDTO, 0, len(points))
	for _, p := range points {
		out = append(out, SeriesPointDTO{Day: p.Day.Format(domain.DateLayout), Revenue: p.Revenue, Orders: p.Orders})
	}
	writeJSON(w, http.StatusOK, SeriesResponse{Selection: selectionToAPI(sel), Points: out})
}

// Payments returns the payment mix. The response states whether the region
// filter was applied.
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mix, err := h.query.PaymentMix(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	shares := mix.Shares
	if shares == nil {
		shares = []domain.PaymentShare{}
	}
	writeJSON(w, http.StatusOK, PaymentsResponse{
		Selection:           selectionToAPI(sel),
		Shares:              shares,
		RegionFilterApplied: mix.RegionFilterApplied,
	})
}

// RevenueByRegion returns revenue per region.
func (h *Handler) RevenueByRegion(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, err := h.query.RevenueByRegion(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.RegionRevenue{}
	}
	writeJSON(w, http.StatusOK, RegionRevenueResponse{Selection: selectionToAPI(sel), Regions: rows})
}

// Customers returns the top customers by revenue.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	sel, err := h.selection(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rows, err := h.query.TopCustomers(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rows == nil {
		rows = []domain.CustomerRevenue{}
	}
	writeJSON(w, http.StatusOK, CustomersResponse{Selection: selectionToAPI(sel), Limit: query.TopCustomersLimit, Customers: rows})
}

// Runs lists recent ingestion runs.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	out := RunsResponse{Runs: []RunDTO{}}
	if h.runs != nil {
		runs, err := h.runs.List(r.Context(), repository.DefaultRunListLimit)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		for _, run := range runs {
			out.Runs = append(out.Runs, runToAPI(run))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Run returns one ingestion run with its files.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	if h.runs == nil {
		h.writeError(w, r, domain.ErrNotFound("ingestion run %q not found", id))
		return
	}
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runToAPI(*run))
}

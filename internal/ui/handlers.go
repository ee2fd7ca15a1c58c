package ui

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"duck-commerce/internal/db/repository"
	"duck-commerce/internal/domain"
	"duck-commerce/internal/service/query"
)

// selectionFromRequest reads start, end and region query parameters.
func (h *Handler) selectionFromRequest(r *http.Request) (domain.Selection, domain.DateBounds, error) {
	bounds, err := h.Query.DateBounds(r.Context())
	if err != nil {
		return domain.Selection{}, domain.DateBounds{}, err
	}
	q := r.URL.Query()
	sel, err := domain.ParseSelection(q.Get("start"), q.Get("end"), q["region"], bounds)
	return sel, bounds, err
}

// Overview renders KPIs, the daily series, payment mix and revenue by region.
// The independent queries run concurrently.
func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	sel, bounds, err := h.selectionFromRequest(r)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	d := overviewPageData{Selection: sel, Bounds: bounds, CSRFField: csrfFieldProvider(r)}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		d.Regions, err = h.Query.AvailableRegions(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Metrics, err = h.Query.Overview(ctx, sel.Range, sel.Regions)
		return err
	})
	g.Go(func() (err error) {
		d.Series, err = h.Query.RevenueSeries(ctx, sel.Range, sel.Regions)
		return err
	})
	g.Go(func() (err error) {
		d.Payments, err = h.Query.PaymentMix(ctx, sel.Range, sel.Regions)
		return err
	})
	g.Go(func() (err error) {
		d.ByRegion, err = h.Query.RevenueByRegion(ctx, sel.Range, sel.Regions)
		return err
	})
	if err := g.Wait(); err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, overviewPage(d))
}

// Customers renders the top customers table.
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	sel, bounds, err := h.selectionFromRequest(r)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	d := customersPageData{Selection: sel, Bounds: bounds, Limit: query.TopCustomersLimit}
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		d.Regions, err = h.Query.AvailableRegions(ctx)
		return err
	})
	g.Go(func() (err error) {
		d.Customers, err = h.Query.TopCustomers(ctx, sel.Range, sel.Regions)
		return err
	})
	if err := g.Wait(); err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, customersPage(d))
}

// CustomersCSV streams the top customers table as CSV.
func (h *Handler) CustomersCSV(w http.ResponseWriter, r *http.Request) {
	sel, _, err := h.selectionFromRequest(r)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	rows, err := h.Query.TopCustomers(r.Context(), sel.Range, sel.Regions)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="top_customers_`+sel.Range.StartString()+`_`+sel.Range.EndString()+`.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"customer_unique_id", "customer_city", "customer_state", "orders", "revenue"})
	for _, c := range rows {
		_ = cw.Write([]string{
			c.CustomerUniqueID,
			c.City,
			c.Region,
			strconv.FormatInt(c.Orders, 10),
			strconv.FormatFloat(c.Revenue, 'f', 2, 64),
		})
	}
	cw.Flush()
}

// Runs lists recent ingestion runs from the metastore.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	if h.RunRepo == nil {
		renderHTML(w, http.StatusOK, runsPage(nil))
		return
	}
	runs, err := h.RunRepo.List(r.Context(), repository.DefaultRunListLimit)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, runsPage(runs))
}

// RunDetail shows the per-file outcome of one ingestion run.
func (h *Handler) RunDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")
	if h.RunRepo == nil {
		h.renderServiceError(w, r, domain.ErrNotFound("ingestion run %q not found", id))
		return
	}
	run, err := h.RunRepo.Get(r.Context(), id)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	renderHTML(w, http.StatusOK, runDetailPage(run))
}

// InvalidateCache drops every cached query result and returns to the
// referring page.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.Cache != nil {
		n := h.Cache.InvalidateAll()
		if h.Logger != nil {
			h.Logger.InfoContext(r.Context(), "query cache invalidated", "entries", n, "trigger", "http")
		}
	}
	target := "/"
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Host == r.Host && ref.Path != "" {
		target = ref.RequestURI()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Healthz reports 200 when the store holds the raw tables and 503 otherwise.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	if rc, ok := h.Query.(ReadyChecker); ok {
		if err := rc.Ready(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]string{"status": "unavailable", "message": err.Error()}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package ui

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"duck-commerce/internal/ui/assets"
)

// MountRoutes registers the dashboard pages on r.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/healthz", h.Healthz)

	if staticFS, err := fs.Sub(assets.StaticFS(), "static"); err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	}

	r.Group(func(r chi.Router) {
		r.Use(h.EnsureCSRFToken)
		r.Use(h.RequireCSRF)
		r.Get("/", h.Overview)
		r.Get("/customers", h.Customers)
		r.Get("/customers.csv", h.CustomersCSV)
		r.Get("/runs", h.Runs)
		r.Get("/runs/{runID}", h.RunDetail)
		r.Post("/cache/invalidate", h.InvalidateCache)
	})
}

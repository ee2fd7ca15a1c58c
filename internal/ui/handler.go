// Package ui renders the server-side dashboard with gomponents.
package ui

import (
	"context"
	"log/slog"
	"net/http"

	"duck-commerce/internal/cache"
	"duck-commerce/internal/domain"

	gomponents "maragu.dev/gomponents"
)

// ReadyChecker reports whether the analytics store can serve queries.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Handler serves the dashboard pages.
type Handler struct {
	Query      domain.AnalyticsQuerier
	RunRepo    domain.RunRepository
	Cache      *cache.Cache
	Logger     *slog.Logger
	Production bool
}

// NewHandler creates a Handler. runs and c may be nil; the run history page
// and cache invalidation then report themselves as unavailable.
func NewHandler(q domain.AnalyticsQuerier, runs domain.RunRepository, c *cache.Cache, logger *slog.Logger, production bool) *Handler {
	return &Handler{
		Query:      q,
		RunRepo:    runs,
		Cache:      c,
		Logger:     logger,
		Production: production,
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

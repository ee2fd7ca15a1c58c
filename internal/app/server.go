package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"duck-commerce/internal/api"
	"duck-commerce/internal/config"
	"duck-commerce/internal/middleware"
	"duck-commerce/internal/ui"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP handler for d. The rate limiter's sweeper runs
// until ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, logger *slog.Logger, d *Dashboard) http.Handler {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	go limiter.Run(ctx)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(limiter.Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
		r.Mount("/", api.NewHandler(d.Cached, d.Runs, logger).Routes())
	})

	ui.MountRoutes(r, ui.NewHandler(d.Cached, d.Runs, d.Cache, logger, cfg.IsProduction()))
	return r
}

// Serve runs the dashboard until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, deps Deps) error {
	cfg, logger := deps.Cfg, deps.Logger

	d, err := NewDashboard(deps)
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck

	if err := d.Query.Ready(ctx); err != nil {
		logger.Warn("analytics store not ready; pages will ask for an ingestion run", "error", err)
	}
	if d.Scheduler != nil {
		d.Scheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           NewRouter(ctx, cfg, logger, d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", "addr", srv.Addr, "url", BrowseURL(srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// BrowseURL turns a listen address into a URL a browser can open. Wildcard
// hosts become localhost.
func BrowseURL(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "http://localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

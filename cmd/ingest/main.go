// Package main loads the marketplace dataset into the DuckDB store.
//
// It takes no flags: configuration comes from the environment and .env.
// The exit status is 0 only when every source file loaded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"duck-commerce/internal/app"
	"duck-commerce/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 2
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	logger := cfg.NewLogger()
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := app.RunIngestion(ctx, app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		logger.Error("ingestion aborted", "error", err)
		return 2
	}

	logger.Info("ingestion finished", "run_id", report.RunID, "summary", report.Summary())
	if !report.OK() {
		return 1
	}
	return 0
}

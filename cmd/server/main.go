// Package main runs the e-commerce dashboard server.
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
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Serve(ctx, app.Deps{Cfg: cfg, Logger: logger}); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

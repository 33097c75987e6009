// Package main is the entry point for the prochost server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"prochost/internal/config"
	"prochost/internal/server"
	"prochost/internal/telemetry"
	"prochost/internal/watchword"
	"prochost/pkg/processor"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config.toml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.Telemetry.LogFormat, cfg.Telemetry.LogLevel)
	slog.SetDefault(logger)

	slog.Info("Starting prochost",
		"version", version,
		"http_port", cfg.Server.HTTPPort,
	)

	var metrics *telemetry.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = telemetry.NewMetrics(nil)
	}

	var observer processor.Observer
	if metrics != nil {
		observer = metrics
	}

	ww, err := watchword.New(cfg.Watchword, logger, observer)
	if err != nil {
		slog.Error("Failed to build watchword processor", "error", err)
		os.Exit(1)
	}

	routes := processor.NewRoutes(cfg.Server.RootPath, ww)
	for _, p := range routes.Processors() {
		slog.Info("Registered processor",
			"id", p.ID(),
			"version", p.Version(),
			"execute_path", p.ExecutePath(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		slog.Info("Received shutdown signal", "signal", sig)
		cancel()
	}()

	srv := server.New(cfg, routes, metrics, logger)
	if err := srv.Start(ctx); err != nil {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}

	slog.Info("prochost stopped")
}

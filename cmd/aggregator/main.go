package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fleetbench/internal/config"
	"fleetbench/internal/logutil"
	"fleetbench/internal/server"
)

func main() {
	cfg, err := config.LoadAggregator()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logutil.BuildLogger(cfg.LogLevel, cfg.LogJSON)
	agg, err := server.NewAggregator(cfg, logger)
	if err != nil {
		logger.Error("aggregator initialization failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := agg.Run(ctx); err != nil {
		logger.Error("aggregator runtime failed", "error", err)
		os.Exit(1)
	}
}

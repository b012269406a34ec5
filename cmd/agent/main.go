package main

import (
	"context"
	"log"

	"fleetbench/internal/agent"
	"fleetbench/internal/config"
	"fleetbench/internal/logutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logutil.BuildLogger(cfg.LogLevel, cfg.LogJSON)
	a, err := agent.New(cfg, logger)
	if err != nil {
		logger.Error("agent initialization failed", "error", err)
		return
	}

	if err := a.Run(context.Background()); err != nil {
		logger.Error("agent runtime failed", "error", err)
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AggregatorConfig drives the fleet aggregator service.
type AggregatorConfig struct {
	GRPCListenAddr  string
	WSListenAddr    string
	WSPath          string
	Token           string
	RoundInterval   time.Duration
	ReportTTL       time.Duration
	IndexOrder      string
	TopK            int
	ShutdownTimeout time.Duration
	LogJSON         bool
	LogLevel        string
}

func LoadAggregator() (AggregatorConfig, error) {
	cfg := AggregatorConfig{
		GRPCListenAddr:  env("FLEETBENCH_AGG_GRPC_ADDR", "0.0.0.0:7700"),
		WSListenAddr:    env("FLEETBENCH_AGG_WS_ADDR", "0.0.0.0:7701"),
		WSPath:          env("FLEETBENCH_AGG_WS_PATH", "/ws/reports"),
		Token:           env("FLEETBENCH_AGG_TOKEN", ""),
		RoundInterval:   envDuration("FLEETBENCH_AGG_ROUND_INTERVAL", time.Minute),
		ReportTTL:       envDuration("FLEETBENCH_AGG_REPORT_TTL", 5*time.Minute),
		IndexOrder:      strings.ToLower(env("FLEETBENCH_AGG_INDEX_ORDER", "address")),
		TopK:            envInt("FLEETBENCH_AGG_TOP_K", 5),
		ShutdownTimeout: envDuration("FLEETBENCH_AGG_SHUTDOWN_TIMEOUT", 15*time.Second),
		LogJSON:         envBool("FLEETBENCH_AGG_LOG_JSON", false),
		LogLevel:        strings.ToLower(env("FLEETBENCH_AGG_LOG_LEVEL", "info")),
	}
	if err := cfg.Validate(); err != nil {
		return AggregatorConfig{}, err
	}
	return cfg, nil
}

func (c AggregatorConfig) Validate() error {
	if strings.TrimSpace(c.GRPCListenAddr) == "" && strings.TrimSpace(c.WSListenAddr) == "" {
		return errors.New("one of FLEETBENCH_AGG_GRPC_ADDR or FLEETBENCH_AGG_WS_ADDR is required")
	}
	if c.WSListenAddr != "" && !strings.HasPrefix(c.WSPath, "/") {
		return errors.New("FLEETBENCH_AGG_WS_PATH must start with /")
	}
	if c.RoundInterval <= 0 {
		return errors.New("FLEETBENCH_AGG_ROUND_INTERVAL must be > 0")
	}
	if c.ReportTTL < 0 {
		return errors.New("FLEETBENCH_AGG_REPORT_TTL must be >= 0")
	}
	switch c.IndexOrder {
	case "address", "hostname", "arrival":
	default:
		return fmt.Errorf("unsupported index order %q", c.IndexOrder)
	}
	if c.TopK < 0 {
		return errors.New("FLEETBENCH_AGG_TOP_K must be >= 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("FLEETBENCH_AGG_SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

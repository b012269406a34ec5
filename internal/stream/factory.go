package stream

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"fleetbench/internal/codec"
	"fleetbench/internal/config"
)

func NewSinkFromConfig(cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (Sink, error) {
	c, err := codec.ForName(cfg.WireCodec)
	if err != nil {
		return nil, err
	}
	switch cfg.StreamMode {
	case config.StreamModeGRPC:
		return NewGRPCClient(cfg.AggregatorGRPCAddr, tlsCfg, cfg.Token, cfg.ReportStreamMethod, c, logger), nil
	case config.StreamModeWebSocket:
		return NewWebSocketClient(cfg.AggregatorWSURL, cfg.Token, tlsCfg, c, cfg.WebSocketWriteTimeout, cfg.WebSocketPingInterval, logger), nil
	default:
		return nil, fmt.Errorf("unsupported stream mode %q", cfg.StreamMode)
	}
}

package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

type StreamMode string

const (
	StreamModeGRPC      StreamMode = "grpc"
	StreamModeWebSocket StreamMode = "websocket"
)

type HostSource string

const (
	HostSourceProcfs  HostSource = "procfs"
	HostSourceLibvirt HostSource = "libvirt"
)

const HardcodedVersion = "v0.3.0"

// Config drives the per-machine agent.
type Config struct {
	NodeID                string
	Hostname              string
	HostSource            HostSource
	LibvirtURI            string
	BenchmarkFile         string
	AppVersion            string
	AdvertiseAddr         string
	ProbeListenAddr       string
	PushInterval          time.Duration
	HealthInterval        time.Duration
	ReconnectInterval     time.Duration
	MaxReconnectJitter    time.Duration
	ShutdownTimeout       time.Duration
	CollectorErrorBackoff time.Duration
	StreamMode            StreamMode
	WireCodec             string
	AggregatorGRPCAddr    string
	AggregatorWSURL       string
	ReportStreamMethod    string
	Token                 string
	AgentVersion          string
	TLSEnabled            bool
	TLSSkipVerify         bool
	TLSCAPath             string
	TLSCertPath           string
	TLSKeyPath            string
	WebSocketWriteTimeout time.Duration
	WebSocketPingInterval time.Duration
	LogJSON               bool
	LogLevel              string
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	cfg := Config{
		NodeID:                env("FLEETBENCH_NODE_ID", hostname),
		Hostname:              hostname,
		HostSource:            HostSource(strings.ToLower(env("FLEETBENCH_HOST_SOURCE", string(HostSourceProcfs)))),
		LibvirtURI:            env("FLEETBENCH_LIBVIRT_URI", "qemu+unix:///system"),
		BenchmarkFile:         env("FLEETBENCH_BENCHMARK_FILE", ""),
		AppVersion:            env("FLEETBENCH_APP_VERSION", ""),
		AdvertiseAddr:         env("FLEETBENCH_ADVERTISE_ADDR", ""),
		ProbeListenAddr:       env("FLEETBENCH_PROBE_ADDR", "0.0.0.0:7443"),
		PushInterval:          envDuration("FLEETBENCH_PUSH_INTERVAL", 30*time.Second),
		HealthInterval:        envDuration("FLEETBENCH_HEALTH_INTERVAL", 10*time.Second),
		ReconnectInterval:     envDuration("FLEETBENCH_RECONNECT_INTERVAL", 4*time.Second),
		MaxReconnectJitter:    envDuration("FLEETBENCH_RECONNECT_MAX_JITTER", 900*time.Millisecond),
		ShutdownTimeout:       envDuration("FLEETBENCH_SHUTDOWN_TIMEOUT", 20*time.Second),
		CollectorErrorBackoff: envDuration("FLEETBENCH_COLLECTOR_ERROR_BACKOFF", 1500*time.Millisecond),
		StreamMode:            StreamMode(strings.ToLower(env("FLEETBENCH_STREAM_MODE", string(StreamModeGRPC)))),
		WireCodec:             strings.ToLower(env("FLEETBENCH_WIRE_CODEC", "json")),
		AggregatorGRPCAddr:    env("FLEETBENCH_AGGREGATOR_GRPC_ADDR", "127.0.0.1:7700"),
		AggregatorWSURL:       env("FLEETBENCH_AGGREGATOR_WS_URL", "ws://127.0.0.1:7701/ws/reports"),
		ReportStreamMethod:    env("FLEETBENCH_GRPC_REPORT_STREAM_METHOD", "/fleetbench.v1.ReportService/StreamReports"),
		Token:                 env("FLEETBENCH_TOKEN", ""),
		AgentVersion:          HardcodedVersion,
		TLSEnabled:            envBool("FLEETBENCH_TLS_ENABLED", false),
		TLSSkipVerify:         envBool("FLEETBENCH_TLS_SKIP_VERIFY", false),
		TLSCAPath:             env("FLEETBENCH_TLS_CA_PATH", ""),
		TLSCertPath:           env("FLEETBENCH_TLS_CERT_PATH", ""),
		TLSKeyPath:            env("FLEETBENCH_TLS_KEY_PATH", ""),
		WebSocketWriteTimeout: envDuration("FLEETBENCH_WS_WRITE_TIMEOUT", 5*time.Second),
		WebSocketPingInterval: envDuration("FLEETBENCH_WS_PING_INTERVAL", 10*time.Second),
		LogJSON:               envBool("FLEETBENCH_LOG_JSON", false),
		LogLevel:              strings.ToLower(env("FLEETBENCH_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.NodeID == "" {
		return errors.New("FLEETBENCH_NODE_ID is required")
	}
	if strings.TrimSpace(c.AgentVersion) == "" {
		return errors.New("agent version must not be empty")
	}
	switch c.HostSource {
	case HostSourceProcfs:
	case HostSourceLibvirt:
		if c.LibvirtURI == "" {
			return errors.New("FLEETBENCH_LIBVIRT_URI is required for libvirt host source")
		}
	default:
		return fmt.Errorf("unsupported host source %q", c.HostSource)
	}
	if c.AdvertiseAddr != "" {
		if _, err := netip.ParseAddr(c.AdvertiseAddr); err != nil {
			return fmt.Errorf("FLEETBENCH_ADVERTISE_ADDR: %w", err)
		}
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("FLEETBENCH_PROBE_ADDR is required")
	}
	if c.PushInterval <= 0 {
		return errors.New("FLEETBENCH_PUSH_INTERVAL must be > 0")
	}
	if c.HealthInterval <= 0 {
		return errors.New("FLEETBENCH_HEALTH_INTERVAL must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("FLEETBENCH_SHUTDOWN_TIMEOUT must be > 0")
	}
	switch c.WireCodec {
	case "json", "cbor":
	default:
		return fmt.Errorf("unsupported wire codec %q", c.WireCodec)
	}
	switch c.StreamMode {
	case StreamModeGRPC:
		if c.AggregatorGRPCAddr == "" {
			return errors.New("FLEETBENCH_AGGREGATOR_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.ReportStreamMethod) == "" {
			return errors.New("FLEETBENCH_GRPC_REPORT_STREAM_METHOD is required for grpc mode")
		}
	case StreamModeWebSocket:
		if c.AggregatorWSURL == "" {
			return errors.New("FLEETBENCH_AGGREGATOR_WS_URL is required for websocket mode")
		}
	default:
		return fmt.Errorf("unsupported stream mode %q", c.StreamMode)
	}
	return nil
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

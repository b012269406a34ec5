package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetbench/internal/collector"
	"fleetbench/internal/config"
	"fleetbench/internal/libvirt"
	"fleetbench/internal/model"
	"fleetbench/internal/stream"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	conn      *libvirt.ConnManager
	scheduler *collector.Scheduler
	sink      stream.Sink
	health    *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	sink, err := stream.NewSinkFromConfig(cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("stream sink: %w", err)
	}

	var (
		conn *libvirt.ConnManager
		host collector.HostCollector = collector.NewProcHostCollector(logger)
	)
	if cfg.HostSource == config.HostSourceLibvirt {
		conn = libvirt.NewConnManager(cfg.LibvirtURI, cfg.ReconnectInterval, cfg.MaxReconnectJitter, logger)
		host = collector.NewLibvirtHostCollector(host, libvirt.NewTopologyReader(conn))
	}

	var advertise netip.Addr
	if cfg.AdvertiseAddr != "" {
		advertise = netip.MustParseAddr(cfg.AdvertiseAddr)
	}
	reports := collector.NewReportCollector(host, cfg.BenchmarkFile, advertise, cfg.AppVersion)

	health := NewHealthStatus()
	wrappedSink := &healthSink{sink: sink, health: health}
	scheduler := collector.NewScheduler(logger, reports, wrappedSink, cfg.NodeID, cfg.PushInterval, cfg.CollectorErrorBackoff)

	return newAgent(cfg, logger, conn, scheduler, wrappedSink, health), nil
}

func newAgent(cfg config.Config, logger *slog.Logger, conn *libvirt.ConnManager, scheduler *collector.Scheduler, sink stream.Sink, health *HealthStatus) *Agent {
	return &Agent{
		cfg:       cfg,
		logger:    logger,
		conn:      conn,
		scheduler: scheduler,
		sink:      sink,
		health:    health,
	}
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting fleetbench agent", "node_id", a.cfg.NodeID, "host_source", a.cfg.HostSource, "stream_mode", a.cfg.StreamMode, "codec", a.cfg.WireCodec)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("fleetbench agent stopped")
	return nil
}

// healthSink records delivery outcomes on the agent's health status.
type healthSink struct {
	sink   stream.Sink
	health *HealthStatus
}

func (s *healthSink) SendReport(ctx context.Context, nodeID string, r model.EndpointReport) error {
	if err := s.sink.SendReport(ctx, nodeID, r); err != nil {
		s.health.SetStreamConnected(false)
		s.health.MarkSendFailure()
		return err
	}
	s.health.SetStreamConnected(true)
	s.health.MarkReportSent(time.Now().UTC())
	return nil
}

func (s *healthSink) Close(ctx context.Context) error {
	return s.sink.Close(ctx)
}

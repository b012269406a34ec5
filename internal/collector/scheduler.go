package collector

import (
	"context"
	"log/slog"
	"time"

	"fleetbench/internal/model"
	"fleetbench/internal/stream"
)

// ReportSource builds the report the scheduler pushes each tick.
type ReportSource interface {
	Collect(ctx context.Context) (model.EndpointReport, error)
}

type Scheduler struct {
	logger       *slog.Logger
	reports      ReportSource
	sink         stream.Sink
	nodeID       string
	interval     time.Duration
	errorBackoff time.Duration
}

func NewScheduler(logger *slog.Logger, reports ReportSource, sink stream.Sink, nodeID string, interval, errorBackoff time.Duration) *Scheduler {
	if errorBackoff <= 0 {
		errorBackoff = time.Second
	}
	return &Scheduler{
		logger:       logger,
		reports:      reports,
		sink:         sink,
		nodeID:       nodeID,
		interval:     interval,
		errorBackoff: errorBackoff,
	}
}

// Run pushes one report immediately, then one per interval until ctx is
// done. Failures are logged and followed by the error backoff.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.CollectAndSend(ctx); err != nil {
		s.logger.Warn("initial report collect failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.CollectAndSend(ctx); err != nil {
				s.logger.Error("report collect/send failed", "error", err)
				s.sleepWithContext(ctx, s.errorBackoff)
			}
		}
	}
}

func (s *Scheduler) CollectAndSend(ctx context.Context) error {
	r, err := s.reports.Collect(ctx)
	if err != nil {
		return err
	}
	if err := s.sink.SendReport(ctx, s.nodeID, r); err != nil {
		return err
	}
	s.logger.Debug("report pushed", "endpoint", r.String(), "samples", len(r.Samples))
	return nil
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

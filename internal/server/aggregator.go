package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"fleetbench/internal/config"
	"fleetbench/internal/fleet"
)

// RoundResult is one periodic view of the fleet.
type RoundResult struct {
	At          time.Time
	Expired     []netip.Addr
	Round       fleet.Round
	Index       fleet.GlobalCoreIndex
	Leaderboard fleet.Leaderboard
	Top         []fleet.RankedSample
}

// Aggregator receives reports from agents over gRPC and websocket and
// recomputes the fleet views on every round.
type Aggregator struct {
	cfg      config.AggregatorConfig
	logger   *slog.Logger
	order    fleet.Order
	registry *Registry
	grpc     *GRPCServer
	http     *http.Server

	mu   sync.Mutex
	last *RoundResult
}

func NewAggregator(cfg config.AggregatorConfig, logger *slog.Logger, opts ...grpc.ServerOption) (*Aggregator, error) {
	order, err := fleet.ParseOrder(cfg.IndexOrder)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	a := &Aggregator{
		cfg:      cfg,
		logger:   logger,
		order:    order,
		registry: registry,
		grpc:     NewGRPCServer(registry, cfg.Token, logger, opts...),
	}
	mux := http.NewServeMux()
	mux.Handle(cfg.WSPath, NewWebSocketHandler(registry, cfg.Token, logger))
	mux.HandleFunc("/healthz", a.serveHealth)
	a.http = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return a, nil
}

func (a *Aggregator) Registry() *Registry { return a.registry }

// Run serves until ctx is cancelled, then drains both listeners within
// the configured shutdown timeout.
func (a *Aggregator) Run(ctx context.Context) error {
	var grpcLis, wsLis net.Listener
	var err error
	if a.cfg.GRPCListenAddr != "" {
		if grpcLis, err = net.Listen("tcp", a.cfg.GRPCListenAddr); err != nil {
			return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPCListenAddr, err)
		}
	}
	if a.cfg.WSListenAddr != "" {
		if wsLis, err = net.Listen("tcp", a.cfg.WSListenAddr); err != nil {
			if grpcLis != nil {
				_ = grpcLis.Close()
			}
			return fmt.Errorf("listen websocket %s: %w", a.cfg.WSListenAddr, err)
		}
	}
	return a.Serve(ctx, grpcLis, wsLis)
}

// Serve is Run on caller-provided listeners. Either may be nil.
func (a *Aggregator) Serve(ctx context.Context, grpcLis, wsLis net.Listener) error {
	a.logger.Info("starting fleetbench aggregator", "order", a.order, "round_interval", a.cfg.RoundInterval, "report_ttl", a.cfg.ReportTTL)

	g, gctx := errgroup.WithContext(ctx)
	if grpcLis != nil {
		g.Go(func() error {
			a.logger.Info("grpc report endpoint listening", "addr", grpcLis.Addr().String())
			return a.grpc.Serve(grpcLis)
		})
	}
	if wsLis != nil {
		g.Go(func() error {
			a.logger.Info("websocket report endpoint listening", "addr", wsLis.Addr().String(), "path", a.cfg.WSPath)
			if err := a.http.Serve(wsLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return a.runRoundLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("fleetbench aggregator stopped")
	return nil
}

func (a *Aggregator) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		a.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		a.logger.Warn("grpc graceful stop timed out, forcing")
		a.grpc.Stop()
	}
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("websocket server shutdown failed", "error", err)
		_ = a.http.Close()
	}
}

func (a *Aggregator) runRoundLoop(ctx context.Context) error {
	t := time.NewTicker(a.cfg.RoundInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			res, err := a.RunRound()
			if err != nil {
				a.logger.Error("fleet round failed", "error", err)
				continue
			}
			a.logRound(res)
		}
	}
}

// RunRound expires stale endpoints and recomputes every fleet view over
// the remaining reports.
func (a *Aggregator) RunRound() (RoundResult, error) {
	res := RoundResult{At: time.Now().UTC()}
	res.Expired = a.registry.Expire(a.cfg.ReportTTL)
	res.Round = fleet.NewRound(a.registry.Snapshot(), a.order)

	idx, err := res.Round.Index()
	if err != nil {
		return RoundResult{}, fmt.Errorf("index fleet cores: %w", err)
	}
	res.Index = idx
	res.Leaderboard = res.Round.Leaderboard()
	res.Top = fleet.TopK(res.Round.Ranking(), a.cfg.TopK)

	a.mu.Lock()
	a.last = &res
	a.mu.Unlock()
	return res, nil
}

// LastRound returns the most recent successful round.
func (a *Aggregator) LastRound() (RoundResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return RoundResult{}, false
	}
	return *a.last, true
}

func (a *Aggregator) logRound(res RoundResult) {
	summary := res.Index.Summary()
	for _, addr := range res.Expired {
		a.logger.Info("endpoint expired", "address", addr)
	}
	a.logger.Info("fleet round",
		"endpoints", summary.TotalEndpoints,
		"virtual_cores", summary.TotalVirtualCores,
		"indexed_slots", res.Index.Len(),
		"expired", len(res.Expired),
	)
	for i, e := range res.Leaderboard {
		a.logger.Debug("leaderboard", "rank", i+1, "address", e.Address, "hostname", e.Hostname, "cores", e.Sample.Cores, "result", e.Sample.Result)
	}
	for i, s := range res.Top {
		a.logger.Debug("top sample", "rank", i+1, "address", s.Address, "cores", s.Sample.Cores, "result", s.Sample.Result)
	}
}

func (a *Aggregator) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok endpoints=" + strconv.Itoa(a.registry.Len()) + "\n"))
}

package export

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/wsmetrics/internal/metrics"
)

// SnapshotSource provides read-only snapshots.
type SnapshotSource interface {
	Snapshot() metrics.Snapshot
}

// Config holds sink configuration.
type Config struct {
	Environment Environment
	Interval    time.Duration // Periodic export interval; 0 disables the loop
	Timeout     time.Duration // Per-report timeout (default: 10s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Environment: Development,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
	}
}

// Sink exports snapshots locally and, in production, to a Reporter.
type Sink struct {
	cfg      Config
	source   SnapshotSource
	reporter Reporter
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSink creates a Sink. reporter may be nil.
func NewSink(cfg Config, source SnapshotSource, reporter Reporter, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Sink{
		cfg:      cfg,
		source:   source,
		reporter: reporter,
		logger:   logger,
	}
}

// Export takes a snapshot, logs it and forwards it when allowed. The
// snapshot is returned whether or not forwarding succeeded.
func (s *Sink) Export(ctx context.Context) metrics.Snapshot {
	snap := s.source.Snapshot()

	s.logger.Info("connection metrics",
		"close_codes", snap.CloseCodeCounts,
		"total_reconnects", snap.TotalReconnects,
		"avg_reconnect_backoff_ms", snap.AvgReconnectBackoffMs,
		"total_connections", snap.TotalConnections,
		"avg_connection_duration_ms", snap.AvgConnectionDurationMs,
		"p95_connection_duration_ms", snap.P95ConnectionDurationMs,
		"current_connection_duration_ms", snap.CurrentConnectionDurationMs,
	)

	if s.reporter == nil || s.cfg.Environment != Production {
		return snap
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.reporter.Report(ctx, snap); err != nil {
		s.logger.Warn("failed to report metrics", "error", err)
	}
	return snap
}

// Start begins the periodic export loop. It is a no-op when Interval is 0.
func (s *Sink) Start(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("metrics export started",
		"interval", s.cfg.Interval,
		"environment", s.cfg.Environment,
		"forwarding", s.reporter != nil && s.cfg.Environment == Production,
	)
	return nil
}

// Stop halts the loop and performs one final export.
func (s *Sink) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.Export(ctx)
	s.logger.Info("metrics export stopped")
	return nil
}

func (s *Sink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Export(s.ctx)
		}
	}
}

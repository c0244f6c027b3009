// wsmonitor keeps a WebSocket session open, reconnecting with exponential
// backoff, and records connection health metrics.
// Usage: go run ./cmd/wsmonitor --config configs/wsmonitor.example.yaml
//
// Send SIGHUP to retry immediately after the client has given up.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/wsmetrics/internal/config"
	"github.com/rickgao/wsmetrics/internal/connection"
	"github.com/rickgao/wsmetrics/internal/database"
	"github.com/rickgao/wsmetrics/internal/export"
	"github.com/rickgao/wsmetrics/internal/logging"
	"github.com/rickgao/wsmetrics/internal/metrics"
	"github.com/rickgao/wsmetrics/internal/reconnect"
	"github.com/rickgao/wsmetrics/internal/session"
	"github.com/rickgao/wsmetrics/internal/status"
	"github.com/rickgao/wsmetrics/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/wsmonitor.example.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger, logCloser := logging.New(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting wsmonitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("wsmonitor failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}

	logger.Info("wsmonitor stopped")
	logCloser.Close()
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	overlap, _ := metrics.ParseOverlapPolicy(cfg.Metrics.OverlapPolicy)
	env, _ := export.ParseEnvironment(cfg.Export.Environment)

	rec := metrics.NewRecorder(
		metrics.WithCapacities(metrics.Capacities{
			CloseCodes: cfg.Metrics.CloseCodeCapacity,
			Reconnects: cfg.Metrics.ReconnectCapacity,
			Sessions:   cfg.Metrics.SessionCapacity,
		}),
		metrics.WithOverlapPolicy(overlap),
	)
	monitor := session.NewMonitor(rec, logger.With("component", "session"))

	supCfg := connection.DefaultSupervisorConfig()
	supCfg.Client = connection.ClientConfig{
		URL:              cfg.Transport.URL,
		Token:            cfg.Transport.Token,
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		PingInterval:     cfg.Transport.PingInterval,
		PingTimeout:      cfg.Transport.PingTimeout,
		WriteTimeout:     cfg.Transport.WriteTimeout,
		BufferSize:       cfg.Transport.BufferSize,
	}
	supCfg.Reconnect = reconnectConfig(cfg.Reconnect)

	sup := connection.NewSupervisor(supCfg, monitor,
		connection.WithLogger(logger.With("component", "supervisor")),
		connection.WithStateHandler(stateLogger(logger)),
	)

	// Handle shutdown and manual retry signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					logger.Info("manual retry requested")
					sup.Retry()
					continue
				}
				logger.Info("received shutdown signal", "signal", sig)
				cancel()
				return
			}
		}
	}()

	reporter, closeReporter, err := buildReporter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeReporter()

	sinkCfg := export.Config{
		Environment: env,
		Interval:    cfg.Export.Interval,
		Timeout:     cfg.Export.Timeout,
	}
	if len(cfg.Export.Collectors()) == 1 && cfg.Export.Collectors()[0] == "none" {
		sinkCfg.Interval = 0
	}
	sink := export.NewSink(sinkCfg, rec, reporter, logger.With("component", "export"))

	statusServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: status.NewHandler(status.Config{
			MetricsPath: cfg.Server.MetricsPath,
		}, rec, sup, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := sup.Start(ctx); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}
	if err := sink.Start(ctx); err != nil {
		return fmt.Errorf("start export: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting status server", "port", cfg.Server.Port)
		if err := statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return statusServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		consume(gctx, sup.Messages(), logger)
		return nil
	})

	logger.Info("wsmonitor running",
		"url", cfg.Transport.URL,
		"summary_url", fmt.Sprintf("http://localhost:%d/summary", cfg.Server.Port),
	)

	runErr := g.Wait()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sup.Stop(shutdownCtx); err != nil {
		logger.Warn("supervisor stop", "error", err)
	}
	if err := sink.Stop(shutdownCtx); err != nil {
		logger.Warn("export stop", "error", err)
	}

	printSummary(rec.Snapshot())
	return runErr
}

// reconnectConfig converts config values; -1 attempts means unlimited.
func reconnectConfig(c config.ReconnectConfig) reconnect.Config {
	maxAttempts := c.MaxAttempts
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return reconnect.Config{
		BaseDelay:   c.BaseDelay,
		MaxDelay:    c.MaxDelay,
		MaxAttempts: maxAttempts,
		Jitter:      c.Jitter,
	}
}

// httpRetries converts the configured retry count; -1 disables retries.
func httpRetries(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// stateLogger surfaces reconnect state changes to the operator.
func stateLogger(logger *slog.Logger) connection.StateHandler {
	return func(from, to reconnect.State) {
		switch to {
		case reconnect.StateGivenUp:
			logger.Error("connection offline: automatic reconnects exhausted, send SIGHUP to retry",
				"from", from,
			)
		case reconnect.StateReconnecting:
			logger.Warn("connection state changed", "from", from, "to", to)
		default:
			logger.Info("connection state changed", "from", from, "to", to)
		}
	}
}

// buildReporter creates the reporter for the configured collectors. The
// returned cleanup func is never nil.
func buildReporter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (export.Reporter, func(), error) {
	var (
		reporters export.Multi
		cleanups  []func()
	)
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	for _, name := range cfg.Export.Collectors() {
		switch name {
		case "http":
			reporters = append(reporters, export.NewHTTPReporter(cfg.Export.HTTP.URL,
				export.WithToken(cfg.Export.HTTP.Token),
				export.WithInstance(cfg.Instance.ID),
				export.WithTimeout(cfg.Export.Timeout),
				export.WithRetries(httpRetries(cfg.Export.HTTP.MaxRetries), cfg.Export.HTTP.RetryBackoff),
				export.WithHTTPLogger(logger),
			))

		case "prometheus":
			reporters = append(reporters, export.NewPrometheusReporter(prometheus.DefaultRegisterer))

		case "postgres":
			logger.Info("connecting to database",
				"host", cfg.Export.Postgres.Host,
				"port", cfg.Export.Postgres.Port,
				"database", cfg.Export.Postgres.Name,
			)
			pool, err := database.Connect(ctx, cfg.Export.Postgres)
			if err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("connect postgres: %w", err)
			}
			cleanups = append(cleanups, pool.Close)

			pg := export.NewPostgresReporter(pool, cfg.Export.Table, cfg.Instance.ID)
			if err := pg.EnsureSchema(ctx); err != nil {
				cleanup()
				return nil, func() {}, err
			}
			reporters = append(reporters, pg)
			logger.Info("database connected")
		}
	}

	switch len(reporters) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return reporters[0], cleanup, nil
	default:
		return reporters, cleanup, nil
	}
}

func consume(ctx context.Context, msgs <-chan connection.TimestampedMessage, logger *slog.Logger) {
	var count int64
	defer func() {
		logger.Info("message consumer stopped", "messages", count)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			count++
			logger.Debug("message received",
				"bytes", len(msg.Data),
				"received_at", msg.ReceivedAt,
				"total", count,
			)
		}
	}
}

func printSummary(snap metrics.Snapshot) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

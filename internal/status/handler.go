// Package status serves the local observability endpoints: the metrics
// summary, a state-based health check and the Prometheus scrape handler.
package status

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/wsmetrics/internal/metrics"
	"github.com/rickgao/wsmetrics/internal/reconnect"
	"github.com/rickgao/wsmetrics/internal/version"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// SnapshotSource provides read-only snapshots.
type SnapshotSource interface {
	Snapshot() metrics.Snapshot
}

// StateSource reports the reconnect state.
type StateSource interface {
	State() reconnect.State
	Attempts() int64
}

// Config holds handler wiring.
type Config struct {
	MetricsPath string              // Empty disables the Prometheus handler
	Gatherer    prometheus.Gatherer // Defaults to prometheus.DefaultGatherer
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config, snapshots SnapshotSource, state StateSource, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, snapshots.Snapshot(), logger)
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		st := state.State()

		health := struct {
			Status   string            `json:"status"`
			State    string            `json:"state"`
			Attempts int64             `json:"attempts"`
			Version  map[string]string `json:"version"`
		}{
			Status:   healthStatus(st),
			State:    st.String(),
			Attempts: state.Attempts(),
			Version:  version.Info(),
		}

		code := http.StatusOK
		if health.Status == StatusOffline {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, health, logger)
	})

	if cfg.MetricsPath != "" {
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func healthStatus(st reconnect.State) string {
	switch st {
	case reconnect.StateConnected:
		return StatusHealthy
	case reconnect.StateGivenUp:
		return StatusOffline
	default:
		return StatusDegraded
	}
}

func writeJSON(w http.ResponseWriter, code int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write response", "error", err)
	}
}

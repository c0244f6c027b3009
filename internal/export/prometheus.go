package export

import (
	"context"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rickgao/wsmetrics/internal/metrics"
)

// PrometheusReporter mirrors each snapshot into gauges.
type PrometheusReporter struct {
	CloseCodes                  *prometheus.GaugeVec
	Reconnects                  prometheus.Gauge
	AvgReconnectBackoffMs       prometheus.Gauge
	Connections                 prometheus.Gauge
	AvgConnectionDurationMs     prometheus.Gauge
	P95ConnectionDurationMs     prometheus.Gauge
	CurrentConnectionDurationMs prometheus.Gauge

	mu sync.Mutex
}

// NewPrometheusReporter registers the wsmetrics gauges with reg.
// A nil reg registers nothing, which is handy in tests.
func NewPrometheusReporter(reg prometheus.Registerer) *PrometheusReporter {
	factory := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Name: "wsmetrics_" + name,
			Help: help,
		})
	}

	return &PrometheusReporter{
		CloseCodes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wsmetrics_close_codes",
			Help: "Retained close events per close code",
		}, []string{"code"}),
		Reconnects:                  gauge("reconnects", "Retained reconnect attempts"),
		AvgReconnectBackoffMs:       gauge("avg_reconnect_backoff_ms", "Mean scheduled reconnect backoff in milliseconds"),
		Connections:                 gauge("connections", "Retained finalized sessions"),
		AvgConnectionDurationMs:     gauge("avg_connection_duration_ms", "Mean finalized session duration in milliseconds"),
		P95ConnectionDurationMs:     gauge("p95_connection_duration_ms", "95th percentile finalized session duration in milliseconds"),
		CurrentConnectionDurationMs: gauge("current_connection_duration_ms", "Age of the open session in milliseconds, 0 if none"),
	}
}

// Report sets every gauge from snap. Codes that fell out of the window are
// removed from the close code vector.
func (p *PrometheusReporter) Report(_ context.Context, snap metrics.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CloseCodes.Reset()
	for code, n := range snap.CloseCodeCounts {
		p.CloseCodes.WithLabelValues(strconv.Itoa(code)).Set(float64(n))
	}

	p.Reconnects.Set(float64(snap.TotalReconnects))
	p.AvgReconnectBackoffMs.Set(float64(snap.AvgReconnectBackoffMs))
	p.Connections.Set(float64(snap.TotalConnections))
	p.AvgConnectionDurationMs.Set(float64(snap.AvgConnectionDurationMs))
	p.P95ConnectionDurationMs.Set(float64(snap.P95ConnectionDurationMs))
	p.CurrentConnectionDurationMs.Set(float64(snap.CurrentConnectionDurationMs))

	return nil
}

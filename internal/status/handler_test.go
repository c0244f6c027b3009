package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/wsmetrics/internal/metrics"
	"github.com/rickgao/wsmetrics/internal/reconnect"
)

type fakeState struct {
	state    reconnect.State
	attempts int64
}

func (f fakeState) State() reconnect.State { return f.state }
func (f fakeState) Attempts() int64        { return f.attempts }

func TestHandler_Summary(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.RecordCloseCode(1006, "")
	rec.RecordCloseCode(1006, "")
	rec.RecordReconnectAttempt(1, 1000)

	h := NewHandler(Config{}, rec, fakeState{state: reconnect.StateConnected}, nil)

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got metrics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CloseCodeCounts[1006] != 2 || got.TotalReconnects != 1 || got.AvgReconnectBackoffMs != 1000 {
		t.Errorf("summary = %+v", got)
	}

	if len(rec.CloseCodes()) != 2 {
		t.Error("summary mutated the recorder")
	}
}

func TestHandler_Health(t *testing.T) {
	tests := []struct {
		state      reconnect.State
		wantCode   int
		wantStatus string
	}{
		{reconnect.StateConnected, http.StatusOK, StatusHealthy},
		{reconnect.StateReconnecting, http.StatusOK, StatusDegraded},
		{reconnect.StateGivenUp, http.StatusServiceUnavailable, StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := NewHandler(Config{}, metrics.NewRecorder(), fakeState{state: tt.state, attempts: 3}, nil)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}

			var body struct {
				Status   string `json:"status"`
				State    string `json:"state"`
				Attempts int64  `json:"attempts"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", body.Status, tt.wantStatus)
			}
			if body.State != tt.state.String() || body.Attempts != 3 {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "wsmetrics_connections", Help: "test"})
	reg.MustRegister(g)
	g.Set(7)

	h := NewHandler(Config{MetricsPath: "/metrics", Gatherer: reg}, metrics.NewRecorder(), fakeState{}, nil)

	server := httptest.NewServer(h)
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "wsmetrics_connections 7") {
		t.Errorf("metrics body missing gauge:\n%s", body)
	}
}

func TestHandler_MetricsDisabled(t *testing.T) {
	h := NewHandler(Config{}, metrics.NewRecorder(), fakeState{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(Config{}, metrics.NewRecorder(), fakeState{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/summary", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

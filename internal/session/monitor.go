// Package session couples transport connect/disconnect events to the metrics
// Recorder.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rickgao/wsmetrics/internal/metrics"
)

// Recorder is the subset of metrics.Recorder the Monitor writes to.
type Recorder interface {
	RecordCloseCode(code int, reason string)
	RecordReconnectAttempt(attempt int, backoffMs int64)
	StartSession(id string)
	EndSession() (metrics.Session, bool)
}

// Monitor receives transport lifecycle hooks and records them.
type Monitor struct {
	rec    Recorder
	logger *slog.Logger

	mu        sync.Mutex
	sessionID string
	connected bool
}

// NewMonitor creates a Monitor writing to rec.
func NewMonitor(rec Recorder, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		rec:    rec,
		logger: logger,
	}
}

// OnConnected starts a session. An empty id is replaced with a random UUID.
// If a session is still open the recorder's overlap policy decides its fate.
func (m *Monitor) OnConnected(sessionID string) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		m.logger.Warn("session started while previous session still open",
			"previous_session_id", m.sessionID,
			"session_id", sessionID,
		)
	}

	m.rec.StartSession(sessionID)
	m.sessionID = sessionID
	m.connected = true

	m.logger.Debug("session started", "session_id", sessionID)
}

// OnDisconnected finalizes the open session. Repeated calls are no-ops.
func (m *Monitor) OnDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return
	}
	m.connected = false

	if s, ok := m.rec.EndSession(); ok {
		m.logger.Debug("session ended",
			"session_id", s.ID,
			"duration_ms", s.DurationMs,
		)
	}
}

// OnClose records the close code reported by the transport.
func (m *Monitor) OnClose(code int, reason string) {
	m.rec.RecordCloseCode(code, reason)
	m.logger.Debug("connection closed", "code", code, "reason", reason)
}

// OnReconnectScheduled records a scheduled retry.
func (m *Monitor) OnReconnectScheduled(attempt int, delay time.Duration) {
	m.rec.RecordReconnectAttempt(attempt, delay.Milliseconds())
	m.logger.Debug("reconnect scheduled", "attempt", attempt, "delay", delay)
}

// SessionID returns the id of the current or most recent session.
func (m *Monitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Connected reports whether a session is open.
func (m *Monitor) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

package metrics

import "time"

// Default history sizes.
const (
	DefaultCloseCodeCapacity = 100
	DefaultReconnectCapacity = 100
	DefaultSessionCapacity   = 50
)

// CloseCodeSample records one connection termination.
type CloseCodeSample struct {
	Code      int       `json:"code"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ReconnectSample records one scheduled retry.
type ReconnectSample struct {
	Attempt   int       `json:"attempt"`
	BackoffMs int64     `json:"backoff_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is one continuous period during which the connection was open.
// DisconnectedAt is zero while the session is in progress.
type Session struct {
	ID             string    `json:"id"`
	ConnectedAt    time.Time `json:"connected_at"`
	DisconnectedAt time.Time `json:"disconnected_at,omitempty"`
	DurationMs     int64     `json:"duration_ms"`
}

// Open reports whether the session has not been finalized yet.
func (s Session) Open() bool {
	return s.DisconnectedAt.IsZero()
}

// Snapshot is the aggregate view over the retained samples.
type Snapshot struct {
	CloseCodeCounts             map[int]int `json:"close_code_counts"`
	TotalReconnects             int         `json:"total_reconnects"`
	AvgReconnectBackoffMs       int64       `json:"avg_reconnect_backoff_ms"`
	TotalConnections            int         `json:"total_connections"`
	AvgConnectionDurationMs     int64       `json:"avg_connection_duration_ms"`
	P95ConnectionDurationMs     int64       `json:"p95_connection_duration_ms"`
	CurrentConnectionDurationMs int64       `json:"current_connection_duration_ms"`
	SessionInProgress           bool        `json:"session_in_progress"`
	GeneratedAt                 time.Time   `json:"generated_at"`
}

// OverlapPolicy decides what StartSession does when a session is still open.
type OverlapPolicy int

const (
	// OverlapDiscard drops the open session without recording it. During
	// reconnect storms this undercounts sessions and duration samples.
	OverlapDiscard OverlapPolicy = iota

	// OverlapFinalize closes the open session at the current time and keeps
	// it as a finalized sample before starting the new one.
	OverlapFinalize
)

// String returns the config name of the policy.
func (p OverlapPolicy) String() string {
	switch p {
	case OverlapDiscard:
		return "discard"
	case OverlapFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// ParseOverlapPolicy converts a config name to an OverlapPolicy.
// Empty input selects OverlapDiscard.
func ParseOverlapPolicy(s string) (OverlapPolicy, bool) {
	switch s {
	case "", "discard":
		return OverlapDiscard, true
	case "finalize":
		return OverlapFinalize, true
	default:
		return OverlapDiscard, false
	}
}

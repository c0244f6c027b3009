package connection

import (
	"errors"
	"time"

	"github.com/rickgao/wsmetrics/internal/reconnect"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrAlreadyStarted  = errors.New("already started")
)

// Close codes reported for failures that carry no close frame.
const (
	CloseAbnormal = 1006 // Transport dropped without a close frame, or dial failed
	CloseStale    = 4000 // Heartbeat timeout detected locally
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., wss://assistant.example.com/ws)
	Token            string        // Bearer token for the Authorization header (empty = no auth)
	HandshakeTimeout time.Duration // Max time for the opening handshake
	PingInterval     time.Duration // How often to send keepalive pings
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       1000,
	}
}

// SupervisorConfig configures a Supervisor.
type SupervisorConfig struct {
	Client            ClientConfig
	Reconnect         reconnect.Config
	MessageBufferSize int           // Buffer size for the output message channel
	SessionID         func() string // Correlation key per connection (nil = random UUID)
}

// DefaultSupervisorConfig returns sensible defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Client:            DefaultClientConfig(),
		Reconnect:         reconnect.DefaultConfig(),
		MessageBufferSize: 10000,
	}
}

// Observer receives transport lifecycle events. session.Monitor implements it.
type Observer interface {
	OnClose(code int, reason string)
	OnReconnectScheduled(attempt int, delay time.Duration)
	OnConnected(sessionID string)
	OnDisconnected()
}

package config

import "time"

// Config is the root configuration for a wsmonitor instance.
type Config struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Transport TransportConfig `yaml:"transport"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Export    ExportConfig    `yaml:"export"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
}

// InstanceConfig identifies this client.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// TransportConfig holds WebSocket settings.
type TransportConfig struct {
	URL              string        `yaml:"url"`
	Token            string        `yaml:"token"` // Sent as a bearer token
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// ReconnectConfig holds backoff settings.
type ReconnectConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"` // -1 for unlimited
	Jitter      float64       `yaml:"jitter"`       // Fraction in [0, 1]
}

// MetricsConfig holds recorder window sizes.
type MetricsConfig struct {
	CloseCodeCapacity int    `yaml:"close_code_capacity"`
	ReconnectCapacity int    `yaml:"reconnect_capacity"`
	SessionCapacity   int    `yaml:"session_capacity"`
	OverlapPolicy     string `yaml:"overlap_policy"` // discard | finalize
}

// ExportConfig holds export sink settings.
type ExportConfig struct {
	Environment string              `yaml:"environment"` // production | development
	Interval    time.Duration       `yaml:"interval"`
	Timeout     time.Duration       `yaml:"timeout"`
	Collector   string              `yaml:"collector"` // Comma-separated: none | log | http | prometheus | postgres
	HTTP        HTTPCollectorConfig `yaml:"http"`
	Postgres    DBConfig            `yaml:"postgres"`
	Table       string              `yaml:"table"`
}

// HTTPCollectorConfig holds the HTTP collector endpoint.
type HTTPCollectorConfig struct {
	URL          string        `yaml:"url"`
	Token        string        `yaml:"token"`
	MaxRetries   int           `yaml:"max_retries"` // -1 disables retries
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug | info | warn | error
	Format     string `yaml:"format"` // text | json
	File       string `yaml:"file"`   // Optional rotated log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ServerConfig holds the status/metrics HTTP server settings.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
}

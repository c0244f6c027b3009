package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultPingTimeout       = 60 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultBufferSize        = 1000
	DefaultBaseDelay         = 1 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultMaxAttempts       = 5
	DefaultCloseCodeCapacity = 100
	DefaultReconnectCapacity = 100
	DefaultSessionCapacity   = 50
	DefaultOverlapPolicy     = "discard"
	DefaultEnvironment       = "development"
	DefaultExportInterval    = 1 * time.Minute
	DefaultExportTimeout     = 10 * time.Second
	DefaultCollector         = "log"
	DefaultHTTPMaxRetries    = 3
	DefaultHTTPRetryBackoff  = 1 * time.Second
	DefaultTable             = "connection_metrics"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 3
	DefaultLogMaxAgeDays     = 28
	DefaultServerPort        = 9090
	DefaultMetricsPath       = "/metrics"
)

func (c *Config) applyDefaults() {
	// Transport defaults
	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Transport.PingInterval == 0 {
		c.Transport.PingInterval = DefaultPingInterval
	}
	if c.Transport.PingTimeout == 0 {
		c.Transport.PingTimeout = DefaultPingTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = DefaultWriteTimeout
	}
	if c.Transport.BufferSize == 0 {
		c.Transport.BufferSize = DefaultBufferSize
	}

	// Reconnect defaults
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultBaseDelay
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultMaxDelay
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}

	// Metrics defaults
	if c.Metrics.CloseCodeCapacity == 0 {
		c.Metrics.CloseCodeCapacity = DefaultCloseCodeCapacity
	}
	if c.Metrics.ReconnectCapacity == 0 {
		c.Metrics.ReconnectCapacity = DefaultReconnectCapacity
	}
	if c.Metrics.SessionCapacity == 0 {
		c.Metrics.SessionCapacity = DefaultSessionCapacity
	}
	if c.Metrics.OverlapPolicy == "" {
		c.Metrics.OverlapPolicy = DefaultOverlapPolicy
	}

	// Export defaults
	if c.Export.Environment == "" {
		c.Export.Environment = DefaultEnvironment
	}
	if c.Export.Interval == 0 {
		c.Export.Interval = DefaultExportInterval
	}
	if c.Export.Timeout == 0 {
		c.Export.Timeout = DefaultExportTimeout
	}
	if c.Export.Collector == "" {
		c.Export.Collector = DefaultCollector
	}
	if c.Export.HTTP.MaxRetries == 0 {
		c.Export.HTTP.MaxRetries = DefaultHTTPMaxRetries
	}
	if c.Export.HTTP.RetryBackoff == 0 {
		c.Export.HTTP.RetryBackoff = DefaultHTTPRetryBackoff
	}
	if c.Export.Table == "" {
		c.Export.Table = DefaultTable
	}
	applyDBDefaults(&c.Export.Postgres)

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

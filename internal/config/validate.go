package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Transport.URL == "" {
		return errors.New("transport.url is required")
	}
	u, err := url.Parse(c.Transport.URL)
	if err != nil {
		return fmt.Errorf("transport.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("transport.url must use ws or wss, got %q", u.Scheme)
	}
	if c.Transport.BufferSize < 1 {
		return errors.New("transport.buffer_size must be >= 1")
	}

	if c.Reconnect.BaseDelay <= 0 {
		return errors.New("reconnect.base_delay must be > 0")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect.max_delay (%s) cannot be less than base_delay (%s)", c.Reconnect.MaxDelay, c.Reconnect.BaseDelay)
	}
	if c.Reconnect.MaxAttempts < -1 {
		return errors.New("reconnect.max_attempts must be >= 1, or -1 for unlimited")
	}
	if c.Reconnect.Jitter < 0 || c.Reconnect.Jitter > 1 {
		return fmt.Errorf("reconnect.jitter must be between 0 and 1, got %g", c.Reconnect.Jitter)
	}

	if c.Metrics.CloseCodeCapacity < 1 {
		return errors.New("metrics.close_code_capacity must be >= 1")
	}
	if c.Metrics.ReconnectCapacity < 1 {
		return errors.New("metrics.reconnect_capacity must be >= 1")
	}
	if c.Metrics.SessionCapacity < 1 {
		return errors.New("metrics.session_capacity must be >= 1")
	}
	switch c.Metrics.OverlapPolicy {
	case "finalize", "discard":
	default:
		return fmt.Errorf("metrics.overlap_policy must be finalize or discard, got %q", c.Metrics.OverlapPolicy)
	}

	if err := c.Export.validate(); err != nil {
		return err
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		return fmt.Errorf("server.metrics_path must start with /, got %q", c.Server.MetricsPath)
	}

	return nil
}

func (e *ExportConfig) validate() error {
	switch strings.ToLower(e.Environment) {
	case "production", "prod", "development", "dev":
	default:
		return fmt.Errorf("export.environment must be production or development, got %q", e.Environment)
	}
	if e.Interval < 0 {
		return errors.New("export.interval must be >= 0")
	}

	collectors := e.Collectors()
	if len(collectors) == 0 {
		return errors.New("export.collector is required")
	}
	for _, c := range collectors {
		switch c {
		case "none", "log", "prometheus":
		case "http":
			if e.HTTP.URL == "" {
				return errors.New("export.http.url is required for the http collector")
			}
			if e.HTTP.MaxRetries < -1 {
				return errors.New("export.http.max_retries must be >= 1, or -1 to disable retries")
			}
			if e.HTTP.RetryBackoff <= 0 {
				return fmt.Errorf("export.http.retry_backoff must be positive, got %s", e.HTTP.RetryBackoff)
			}
		case "postgres":
			if err := e.Postgres.validate("export.postgres"); err != nil {
				return err
			}
		default:
			return fmt.Errorf("export.collector must be one of none, log, http, prometheus, postgres, got %q", c)
		}
	}
	return nil
}

// Collectors splits the comma-separated collector list.
func (e *ExportConfig) Collectors() []string {
	var out []string
	for _, c := range strings.Split(e.Collector, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}

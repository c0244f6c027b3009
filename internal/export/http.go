package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rickgao/wsmetrics/internal/metrics"
)

// CollectorError represents a non-2xx response from the collector.
type CollectorError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *CollectorError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// maxRetryBackoff caps the doubling retry delay.
const maxRetryBackoff = time.Minute

// HTTPReporter POSTs snapshots as JSON to a collector endpoint.
type HTTPReporter struct {
	url        string
	token      string
	instance   string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// HTTPOption configures an HTTPReporter.
type HTTPOption func(*HTTPReporter)

// NewHTTPReporter creates a reporter posting to url.
func NewHTTPReporter(url string, opts ...HTTPOption) *HTTPReporter {
	r := &HTTPReporter{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithToken sets the bearer token sent with each report.
func WithToken(token string) HTTPOption {
	return func(r *HTTPReporter) {
		r.token = token
	}
}

// WithInstance tags every report with an instance identifier.
func WithInstance(id string) HTTPOption {
	return func(r *HTTPReporter) {
		r.instance = id
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(r *HTTPReporter) {
		r.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration. A negative max disables retries.
func WithRetries(max int, backoff time.Duration) HTTPOption {
	return func(r *HTTPReporter) {
		if max < 0 {
			max = 0
		}
		r.maxRetries = max
		r.retryBackoff = backoff
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(r *HTTPReporter) {
		r.httpClient = hc
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(r *HTTPReporter) {
		r.logger = logger
	}
}

// report is the collector payload.
type report struct {
	Instance string           `json:"instance,omitempty"`
	Metrics  metrics.Snapshot `json:"metrics"`
}

// Report sends the snapshot, retrying retryable failures with jittered
// exponential backoff.
func (r *HTTPReporter) Report(ctx context.Context, snap metrics.Snapshot) error {
	body, err := json.Marshal(report{Instance: r.instance, Metrics: snap})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	var lastErr error
	backoff := r.retryBackoff

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := jittered(backoff)
			r.logger.Debug("retrying report",
				"attempt", attempt,
				"backoff", wait,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}

			backoff = nextBackoff(backoff)
		}

		err := r.post(ctx, body)
		if err == nil {
			return nil
		}

		lastErr = err

		var collErr *CollectorError
		if !errors.As(err, &collErr) || !collErr.IsRetryable() {
			return err
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// jittered spreads d over 0.5d to 1.5d. Non-positive delays retry immediately.
func jittered(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d/2 + time.Duration(rand.Int64N(int64(d)+1))
}

// nextBackoff doubles d up to maxRetryBackoff.
func nextBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if d >= maxRetryBackoff/2 {
		return maxRetryBackoff
	}
	return d * 2
}

func (r *HTTPReporter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return &CollectorError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
	}

	return nil
}

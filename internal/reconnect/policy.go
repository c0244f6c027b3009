package reconnect

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// State is the reconnect state of a connection.
type State int

const (
	StateConnected State = iota
	StateReconnecting
	StateGivenUp
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateGivenUp:
		return "given_up"
	default:
		return "unknown"
	}
}

// Config configures a Policy.
type Config struct {
	BaseDelay   time.Duration // Delay before the first retry
	MaxDelay    time.Duration // Upper bound for any delay (0 = uncapped)
	MaxAttempts int           // Retries before giving up (0 = unlimited)
	Jitter      float64       // Fractional spread applied to each delay, 0..1
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 5,
	}
}

// Backoff returns min(BaseDelay * 2^(attempt-1), MaxDelay) without jitter.
// Attempts below 1 are treated as 1. The result is never negative.
func (c Config) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := c.BaseDelay
	if d < 0 {
		d = 0
	}

	for i := 1; i < attempt && d > 0; i++ {
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			break
		}
		if d > math.MaxInt64/2 {
			d = math.MaxInt64
			break
		}
		d *= 2
	}

	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// AttemptObserver is told about every scheduled retry.
type AttemptObserver interface {
	OnReconnectScheduled(attempt int, delay time.Duration)
}

// Decision is the policy's answer to a failure.
type Decision struct {
	Retry   bool          // Schedule another attempt after Delay
	GiveUp  bool          // Stop retrying; surface an offline state
	Attempt int           // 1-based attempt number when Retry is set
	Delay   time.Duration // Wait before the attempt
}

// Policy is the reconnect state machine.
type Policy struct {
	cfg      Config
	observer AttemptObserver
	rnd      func() float64

	mu      sync.Mutex
	state   State
	attempt int
}

// NewPolicy creates a Policy in the Connected state. observer may be nil.
func NewPolicy(cfg Config, observer AttemptObserver) *Policy {
	return &Policy{
		cfg:      cfg,
		observer: observer,
		rnd:      rand.Float64,
		state:    StateConnected,
	}
}

// OnFailure handles a close, error or failed reconnect.
func (p *Policy) OnFailure() Decision {
	p.mu.Lock()

	if p.state == StateGivenUp {
		p.mu.Unlock()
		return Decision{GiveUp: true}
	}

	p.attempt++
	if p.cfg.MaxAttempts > 0 && p.attempt > p.cfg.MaxAttempts {
		p.state = StateGivenUp
		p.mu.Unlock()
		return Decision{GiveUp: true}
	}

	p.state = StateReconnecting
	d := Decision{
		Retry:   true,
		Attempt: p.attempt,
		Delay:   p.delay(p.attempt),
	}
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.OnReconnectScheduled(d.Attempt, d.Delay)
	}
	return d
}

// OnConnected records a successful (re)connection and clears the attempt count.
func (p *Policy) OnConnected() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateConnected
	p.attempt = 0
}

// Reset leaves any state for Reconnecting with a fresh attempt count.
// Used for manual retries after the policy gave up.
func (p *Policy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateReconnecting
	p.attempt = 0
}

// State returns the current state.
func (p *Policy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempt returns the number of retries scheduled since the last connect.
func (p *Policy) Attempt() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempt
}

// delay applies jitter to the backoff for attempt. Must be called with lock held.
func (p *Policy) delay(attempt int) time.Duration {
	d := p.cfg.Backoff(attempt)
	if p.cfg.Jitter <= 0 || d == 0 {
		return d
	}

	j := p.cfg.Jitter
	if j > 1 {
		j = 1
	}

	// Spread uniformly over d * [1-j, 1+j).
	f := float64(d) * (1 + j*(2*p.rnd()-1))
	if f < 0 || math.IsNaN(f) {
		f = 0
	}
	if f > math.MaxInt64 {
		f = math.MaxInt64
	}
	out := time.Duration(f)
	if p.cfg.MaxDelay > 0 && out > p.cfg.MaxDelay {
		out = p.cfg.MaxDelay
	}
	return out
}

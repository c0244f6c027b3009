package reconnect

import (
	"math"
	"sync"
	"testing"
	"time"
)

// recordingObserver captures scheduled attempts.
type recordingObserver struct {
	mu       sync.Mutex
	attempts []int
	delays   []time.Duration
}

func (o *recordingObserver) OnReconnectScheduled(attempt int, delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, attempt)
	o.delays = append(o.delays, delay)
}

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 30 * time.Second}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		if got := cfg.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestConfig_BackoffEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		attempt int
		want    time.Duration
	}{
		{
			name:    "attempt zero treated as one",
			cfg:     Config{BaseDelay: time.Second, MaxDelay: time.Minute},
			attempt: 0,
			want:    time.Second,
		},
		{
			name:    "negative base clamps to zero",
			cfg:     Config{BaseDelay: -time.Second, MaxDelay: time.Minute},
			attempt: 3,
			want:    0,
		},
		{
			name:    "huge attempt stays capped",
			cfg:     Config{BaseDelay: time.Second, MaxDelay: time.Minute},
			attempt: 10000,
			want:    time.Minute,
		},
		{
			name:    "uncapped does not overflow",
			cfg:     Config{BaseDelay: time.Second},
			attempt: 200,
			want:    time.Duration(math.MaxInt64),
		},
		{
			name:    "base above max",
			cfg:     Config{BaseDelay: time.Hour, MaxDelay: time.Minute},
			attempt: 1,
			want:    time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Backoff(tt.attempt)
			if got != tt.want {
				t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
			if got < 0 {
				t.Errorf("Backoff(%d) negative: %v", tt.attempt, got)
			}
		})
	}
}

func TestPolicy_InitialState(t *testing.T) {
	p := NewPolicy(DefaultConfig(), nil)

	if p.State() != StateConnected {
		t.Errorf("State() = %v, want %v", p.State(), StateConnected)
	}
	if p.Attempt() != 0 {
		t.Errorf("Attempt() = %d, want 0", p.Attempt())
	}
}

func TestPolicy_FailureSchedulesRetry(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPolicy(Config{BaseDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 10}, obs)

	d := p.OnFailure()
	if !d.Retry || d.GiveUp {
		t.Fatalf("Decision = %+v, want retry", d)
	}
	if d.Attempt != 1 || d.Delay != time.Second {
		t.Errorf("Decision = %+v, want attempt 1 after 1s", d)
	}
	if p.State() != StateReconnecting {
		t.Errorf("State() = %v, want %v", p.State(), StateReconnecting)
	}

	d = p.OnFailure()
	if d.Attempt != 2 || d.Delay != 2*time.Second {
		t.Errorf("Decision = %+v, want attempt 2 after 2s", d)
	}

	if len(obs.attempts) != 2 || obs.attempts[0] != 1 || obs.attempts[1] != 2 {
		t.Errorf("observed attempts = %v, want [1 2]", obs.attempts)
	}
	if obs.delays[1] != 2*time.Second {
		t.Errorf("observed delay = %v, want 2s", obs.delays[1])
	}
}

func TestPolicy_ConnectedResetsAttempts(t *testing.T) {
	p := NewPolicy(DefaultConfig(), nil)

	p.OnFailure()
	p.OnFailure()
	p.OnConnected()

	if p.State() != StateConnected {
		t.Errorf("State() = %v, want %v", p.State(), StateConnected)
	}
	if p.Attempt() != 0 {
		t.Errorf("Attempt() = %d, want 0", p.Attempt())
	}

	d := p.OnFailure()
	if d.Attempt != 1 || d.Delay != time.Second {
		t.Errorf("Decision after reconnect = %+v, want attempt 1 after 1s", d)
	}
}

func TestPolicy_GivesUpAfterMaxAttempts(t *testing.T) {
	obs := &recordingObserver{}
	p := NewPolicy(Config{BaseDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 5}, obs)

	// Initial drop plus five failed retries.
	var last Decision
	for i := 0; i < 6; i++ {
		last = p.OnFailure()
		if i < 5 && !last.Retry {
			t.Fatalf("failure %d: Decision = %+v, want retry", i+1, last)
		}
	}

	if !last.GiveUp || last.Retry {
		t.Errorf("final Decision = %+v, want give up", last)
	}
	if p.State() != StateGivenUp {
		t.Errorf("State() = %v, want %v", p.State(), StateGivenUp)
	}
	if len(obs.attempts) != 5 {
		t.Errorf("observed %d attempts, want 5", len(obs.attempts))
	}

	// Terminal: further failures are not reported.
	if d := p.OnFailure(); !d.GiveUp {
		t.Errorf("Decision in given_up = %+v, want give up", d)
	}
	if len(obs.attempts) != 5 {
		t.Errorf("observed %d attempts after terminal failure, want 5", len(obs.attempts))
	}
}

func TestPolicy_ResetLeavesGivenUp(t *testing.T) {
	p := NewPolicy(Config{BaseDelay: time.Second, MaxDelay: time.Minute, MaxAttempts: 1}, nil)

	p.OnFailure()
	p.OnFailure()
	if p.State() != StateGivenUp {
		t.Fatalf("State() = %v, want %v", p.State(), StateGivenUp)
	}

	p.Reset()
	if p.State() != StateReconnecting {
		t.Errorf("State() after Reset = %v, want %v", p.State(), StateReconnecting)
	}

	d := p.OnFailure()
	if !d.Retry || d.Attempt != 1 {
		t.Errorf("Decision after Reset = %+v, want retry attempt 1", d)
	}
}

func TestPolicy_UnlimitedAttempts(t *testing.T) {
	p := NewPolicy(Config{BaseDelay: time.Millisecond, MaxDelay: time.Second}, nil)

	for i := 0; i < 1000; i++ {
		if d := p.OnFailure(); !d.Retry {
			t.Fatalf("failure %d: Decision = %+v, want retry", i+1, d)
		}
	}
}

func TestPolicy_Jitter(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 30 * time.Second, Jitter: 0.5}

	tests := []struct {
		name string
		r    float64
		want time.Duration
	}{
		{name: "low edge", r: 0, want: 500 * time.Millisecond},
		{name: "middle", r: 0.5, want: time.Second},
		{name: "high", r: 0.75, want: 1250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(cfg, nil)
			p.rnd = func() float64 { return tt.r }

			d := p.OnFailure()
			if d.Delay != tt.want {
				t.Errorf("Delay = %v, want %v", d.Delay, tt.want)
			}
		})
	}
}

func TestPolicy_JitterStaysWithinBounds(t *testing.T) {
	cfg := Config{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Jitter: 1, MaxAttempts: 0}
	p := NewPolicy(cfg, nil)

	for i := 0; i < 200; i++ {
		d := p.OnFailure()
		if d.Delay < 0 || d.Delay > cfg.MaxDelay {
			t.Fatalf("attempt %d: Delay = %v outside [0, %v]", d.Attempt, d.Delay, cfg.MaxDelay)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateConnected:    "connected",
		StateReconnecting: "reconnecting",
		StateGivenUp:      "given_up",
		State(42):         "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}

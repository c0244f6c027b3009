package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Recorder accumulates close codes, reconnect attempts and connection
// sessions in bounded histories and computes aggregates on demand.
//
// The recorder does not validate its inputs: negative backoffs or
// non-positive attempt numbers are stored as given. Callers own
// well-formedness.
type Recorder struct {
	mu      sync.Mutex
	now     func() time.Time
	overlap OverlapPolicy

	closeCodes *Ring[CloseCodeSample]
	reconnects *Ring[ReconnectSample]
	sessions   *Ring[Session]

	current    Session
	hasCurrent bool
}

// Capacities sets the history sizes of a Recorder.
type Capacities struct {
	CloseCodes int
	Reconnects int
	Sessions   int
}

// DefaultCapacities returns the standard history sizes.
func DefaultCapacities() Capacities {
	return Capacities{
		CloseCodes: DefaultCloseCodeCapacity,
		Reconnects: DefaultReconnectCapacity,
		Sessions:   DefaultSessionCapacity,
	}
}

// Option configures a Recorder.
type Option func(*recorderOptions)

type recorderOptions struct {
	now     func() time.Time
	caps    Capacities
	overlap OverlapPolicy
}

// WithClock sets the time source. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *recorderOptions) {
		o.now = now
	}
}

// WithCapacities overrides the history sizes. Zero fields keep the default.
func WithCapacities(c Capacities) Option {
	return func(o *recorderOptions) {
		if c.CloseCodes > 0 {
			o.caps.CloseCodes = c.CloseCodes
		}
		if c.Reconnects > 0 {
			o.caps.Reconnects = c.Reconnects
		}
		if c.Sessions > 0 {
			o.caps.Sessions = c.Sessions
		}
	}
}

// WithOverlapPolicy sets how StartSession treats a session that is still open.
// Defaults to OverlapDiscard.
func WithOverlapPolicy(p OverlapPolicy) Option {
	return func(o *recorderOptions) {
		o.overlap = p
	}
}

// NewRecorder creates an empty Recorder.
func NewRecorder(opts ...Option) *Recorder {
	o := recorderOptions{
		now:     time.Now,
		caps:    DefaultCapacities(),
		overlap: OverlapDiscard,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Recorder{
		now:        o.now,
		overlap:    o.overlap,
		closeCodes: NewRing[CloseCodeSample](o.caps.CloseCodes),
		reconnects: NewRing[ReconnectSample](o.caps.Reconnects),
		sessions:   NewRing[Session](o.caps.Sessions),
	}
}

// RecordCloseCode appends a close code sample stamped with the current time.
func (r *Recorder) RecordCloseCode(code int, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeCodes.Push(CloseCodeSample{
		Code:      code,
		Reason:    reason,
		Timestamp: r.now(),
	})
}

// RecordReconnectAttempt appends a reconnect sample stamped with the current time.
func (r *Recorder) RecordReconnectAttempt(attempt int, backoffMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reconnects.Push(ReconnectSample{
		Attempt:   attempt,
		BackoffMs: backoffMs,
		Timestamp: r.now(),
	})
}

// StartSession marks a new in-progress session. An already open session is
// finalized or discarded according to the overlap policy.
func (r *Recorder) StartSession(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.hasCurrent && r.overlap == OverlapFinalize {
		r.finalizeLocked(now)
	}

	r.current = Session{
		ID:          id,
		ConnectedAt: now,
	}
	r.hasCurrent = true
}

// EndSession finalizes the in-progress session. It returns the finalized
// session, or false if no session was open.
func (r *Recorder) EndSession() (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasCurrent {
		return Session{}, false
	}
	return r.finalizeLocked(r.now()), true
}

// finalizeLocked closes the current session at t. Must be called with lock held.
func (r *Recorder) finalizeLocked(t time.Time) Session {
	s := r.current
	s.DisconnectedAt = t
	s.DurationMs = t.Sub(s.ConnectedAt).Milliseconds()
	if s.DurationMs < 0 {
		s.DurationMs = 0
	}

	r.sessions.Push(s)
	r.current = Session{}
	r.hasCurrent = false
	return s
}

// Current returns the in-progress session, if any.
func (r *Recorder) Current() (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.hasCurrent
}

// CloseCodes returns the retained close code samples, oldest first.
func (r *Recorder) CloseCodes() []CloseCodeSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCodes.Items()
}

// ReconnectAttempts returns the retained reconnect samples, oldest first.
func (r *Recorder) ReconnectAttempts() []ReconnectSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconnects.Items()
}

// Sessions returns the retained finalized sessions, oldest first.
func (r *Recorder) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.Items()
}

// Snapshot computes the aggregate view. It never mutates the recorder.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	snap := Snapshot{
		CloseCodeCounts:   make(map[int]int),
		TotalReconnects:   r.reconnects.Len(),
		TotalConnections:  r.sessions.Len(),
		SessionInProgress: r.hasCurrent,
		GeneratedAt:       now,
	}

	r.closeCodes.Each(func(s CloseCodeSample) {
		snap.CloseCodeCounts[s.Code]++
	})

	backoffs := make([]int64, 0, r.reconnects.Len())
	r.reconnects.Each(func(s ReconnectSample) {
		backoffs = append(backoffs, s.BackoffMs)
	})
	snap.AvgReconnectBackoffMs = roundedMean(backoffs)

	durations := make([]int64, 0, r.sessions.Len())
	r.sessions.Each(func(s Session) {
		durations = append(durations, s.DurationMs)
	})
	snap.AvgConnectionDurationMs = roundedMean(durations)
	snap.P95ConnectionDurationMs = Percentile(durations, 0.95)

	if r.hasCurrent {
		snap.CurrentConnectionDurationMs = now.Sub(r.current.ConnectedAt).Milliseconds()
		if snap.CurrentConnectionDurationMs < 0 {
			snap.CurrentConnectionDurationMs = 0
		}
	}

	return snap
}

// Reset drops all samples and the in-progress session.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeCodes.Reset()
	r.reconnects.Reset()
	r.sessions.Reset()
	r.current = Session{}
	r.hasCurrent = false
}

// roundedMean returns the arithmetic mean rounded to the nearest integer,
// or 0 for an empty slice.
func roundedMean(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return int64(math.Round(sum / float64(len(values))))
}

// Percentile returns the nearest-rank percentile p (0 < p <= 1) of values.
// The input is not modified. Returns 0 for an empty slice.
func Percentile(values []int64, p float64) int64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]int64, n)
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(math.Ceil(float64(n)*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

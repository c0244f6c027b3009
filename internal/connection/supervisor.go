package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rickgao/wsmetrics/internal/reconnect"
)

// ClientFactory builds a fresh Client for each connection attempt.
type ClientFactory func(cfg ClientConfig, logger *slog.Logger) Client

// StateHandler is called from the event loop whenever the reconnect state changes.
type StateHandler func(from, to reconnect.State)

// Supervisor keeps one logical connection alive. A single event loop owns the
// client, the reconnect policy and the pending retry, so observer callbacks
// arrive in the order the events happened.
type Supervisor struct {
	cfg       SupervisorConfig
	observer  Observer
	policy    *reconnect.Policy
	logger    *slog.Logger
	newClient ClientFactory
	onState   StateHandler

	messages chan TimestampedMessage
	retryCh  chan uint64
	manualCh chan struct{}
	timer    reconnect.Timer

	// Owned by the event loop
	pendingRetry bool
	retryGen     uint64
	attemptsSeen atomic.Int64

	mu     sync.RWMutex
	client Client

	started atomic.Bool
	stopped atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithClientFactory replaces the gorilla client, mainly for tests.
func WithClientFactory(f ClientFactory) SupervisorOption {
	return func(s *Supervisor) {
		s.newClient = f
	}
}

// WithStateHandler registers a callback for reconnect state changes.
func WithStateHandler(h StateHandler) SupervisorOption {
	return func(s *Supervisor) {
		s.onState = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// NewSupervisor creates a Supervisor reporting to observer.
func NewSupervisor(cfg SupervisorConfig, observer Observer, opts ...SupervisorOption) *Supervisor {
	if observer == nil {
		observer = nopObserver{}
	}
	if cfg.SessionID == nil {
		cfg.SessionID = uuid.NewString
	}
	if cfg.MessageBufferSize < 1 {
		cfg.MessageBufferSize = 1
	}

	s := &Supervisor{
		cfg:       cfg,
		observer:  observer,
		policy:    reconnect.NewPolicy(cfg.Reconnect, observer),
		logger:    slog.Default(),
		newClient: NewClient,
		messages:  make(chan TimestampedMessage, cfg.MessageBufferSize),
		retryCh:   make(chan uint64),
		manualCh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start dials the first connection and runs the event loop until Stop or
// ctx cancellation. A failed first dial is handled like any other failure.
func (s *Supervisor) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("connection supervisor started", "url", s.cfg.Client.URL)
	return nil
}

// Stop cancels any pending retry, closes the connection and finalizes the
// open session, even when ctx expires first. Calls after the first are no-ops.
func (s *Supervisor) Stop(ctx context.Context) error {
	if !s.started.Load() || !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info("stopping connection supervisor")

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// The event loop may still be running, so messages stays open.
		s.logger.Warn("shutdown timeout, forcing close")
		s.closeCurrent()
		return ctx.Err()
	}

	s.closeCurrent()
	close(s.messages)

	s.logger.Info("connection supervisor stopped")
	return nil
}

// closeCurrent cancels any pending retry, closes the open connection and
// finalizes its session.
func (s *Supervisor) closeCurrent() {
	s.timer.Cancel()

	if c := s.swapClient(nil); c != nil {
		c.Close()
		s.observer.OnDisconnected()
	}
}

// Retry requests an immediate connection attempt with a fresh attempt count.
// It is the manual way out of the given-up state and is ignored while connected.
func (s *Supervisor) Retry() {
	select {
	case s.manualCh <- struct{}{}:
	default:
	}
}

// Messages returns all data messages received on any connection.
func (s *Supervisor) Messages() <-chan TimestampedMessage {
	return s.messages
}

// Send writes raw bytes to the current connection.
func (s *Supervisor) Send(data []byte) error {
	c := s.current()
	if c == nil {
		return ErrNotConnected
	}
	return c.Send(data)
}

// SendJSON marshals v and writes it to the current connection.
func (s *Supervisor) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.Send(data)
}

// State returns the reconnect state.
func (s *Supervisor) State() reconnect.State {
	return s.policy.State()
}

// Connected reports whether a connection is currently open.
func (s *Supervisor) Connected() bool {
	c := s.current()
	return c != nil && c.IsConnected()
}

// Attempts returns the number of connection attempts made so far.
func (s *Supervisor) Attempts() int64 {
	return s.attemptsSeen.Load()
}

// run is the event loop.
func (s *Supervisor) run() {
	defer s.wg.Done()

	s.dial()

	for {
		var (
			errs <-chan error
			msgs <-chan TimestampedMessage
		)
		if c := s.current(); c != nil {
			errs = c.Errors()
			msgs = c.Messages()
		}

		select {
		case <-s.ctx.Done():
			return

		case err := <-errs:
			s.handleDrop(err)

		case msg := <-msgs:
			s.forward(msg)

		case gen := <-s.retryCh:
			// A retry that fired just before being canceled or superseded is stale.
			if !s.pendingRetry || gen != s.retryGen {
				continue
			}
			s.pendingRetry = false
			s.dial()

		case <-s.manualCh:
			if s.current() != nil {
				continue
			}
			s.timer.Cancel()
			s.pendingRetry = false
			s.retryGen++

			from := s.policy.State()
			s.policy.Reset()
			s.notify(from)

			s.logger.Info("manual reconnect requested")
			s.dial()
		}
	}
}

// dial makes one connection attempt.
func (s *Supervisor) dial() {
	s.attemptsSeen.Add(1)

	c := s.newClient(s.cfg.Client, s.logger)
	if err := c.Connect(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		code, reason := CloseInfo(err)
		s.logger.Warn("connection attempt failed",
			"error", err,
			"code", code,
		)
		s.observer.OnClose(code, reason)
		s.scheduleRetry()
		return
	}

	s.swapClient(c)

	from := s.policy.State()
	s.policy.OnConnected()
	s.observer.OnConnected(s.cfg.SessionID())
	s.notify(from)

	s.logger.Info("connected", "url", s.cfg.Client.URL)
}

// handleDrop processes an error from the open connection.
func (s *Supervisor) handleDrop(err error) {
	c := s.swapClient(nil)
	if c != nil {
		s.drain(c)
		c.Close()
	}

	code, reason := CloseInfo(err)
	s.logger.Warn("connection lost",
		"error", err,
		"code", code,
		"reason", reason,
	)

	s.observer.OnClose(code, reason)
	s.observer.OnDisconnected()
	s.scheduleRetry()
}

// scheduleRetry asks the policy for the next action and arms the timer.
func (s *Supervisor) scheduleRetry() {
	from := s.policy.State()
	d := s.policy.OnFailure()

	if d.Retry {
		s.pendingRetry = true
		s.retryGen++
		gen := s.retryGen
		s.timer.Schedule(d.Delay, func() {
			select {
			case s.retryCh <- gen:
			case <-s.ctx.Done():
			}
		})
		s.logger.Info("reconnect scheduled",
			"attempt", d.Attempt,
			"delay", d.Delay,
		)
	}

	s.notify(from)

	if d.GiveUp && from != reconnect.StateGivenUp {
		s.logger.Error("connection offline, giving up on automatic reconnects",
			"max_attempts", s.cfg.Reconnect.MaxAttempts,
		)
	}
}

// forward hands a message to consumers without blocking the event loop.
func (s *Supervisor) forward(msg TimestampedMessage) {
	select {
	case s.messages <- msg:
	default:
		s.logger.Warn("supervisor buffer full, dropping message")
	}
}

// drain forwards messages already buffered by a dropped client.
func (s *Supervisor) drain(c Client) {
	for {
		select {
		case msg := <-c.Messages():
			s.forward(msg)
		default:
			return
		}
	}
}

func (s *Supervisor) notify(from reconnect.State) {
	to := s.policy.State()
	if from == to || s.onState == nil {
		return
	}
	s.onState(from, to)
}

func (s *Supervisor) current() Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// swapClient installs c and returns the previous client.
func (s *Supervisor) swapClient(c Client) Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.client
	s.client = c
	return prev
}

type nopObserver struct{}

func (nopObserver) OnClose(int, string)                     {}
func (nopObserver) OnReconnectScheduled(int, time.Duration) {}
func (nopObserver) OnConnected(string)                      {}
func (nopObserver) OnDisconnected()                         {}

// flapserver is a local WebSocket endpoint that drops every connection after
// a fixed lifetime, to exercise the client's reconnect path by hand.
// Usage: go run ./cmd/flapserver --addr :8081 --lifetime 10s --code 1006
//
// Code 1006 closes the TCP connection without a close frame; any other code
// is sent in a close frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Config holds flapserver settings.
type Config struct {
	Lifetime     time.Duration // How long each connection stays open
	CloseCode    int           // Close code to send, 1006 for an abrupt drop
	CloseReason  string        // Close frame reason
	TickInterval time.Duration // Interval between data messages, 0 disables
	RejectEvery  int           // Reject every Nth upgrade with 503, 0 disables
}

type flapServer struct {
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	conns    atomic.Int64
}

func newFlapServer(cfg Config, logger *slog.Logger) *flapServer {
	return &flapServer{cfg: cfg, logger: logger}
}

func (s *flapServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.conns.Add(1)
	if s.cfg.RejectEvery > 0 && n%int64(s.cfg.RejectEvery) == 0 {
		s.logger.Info("rejecting connection", "n", n)
		http.Error(w, "flapping", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.logger.Info("client connected", "n", n, "remote", r.RemoteAddr, "lifetime", s.cfg.Lifetime)

	// Reader keeps control frames flowing and notices client closes.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var tick <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	deadline := time.NewTimer(s.cfg.Lifetime)
	defer deadline.Stop()

	var seq int
	for {
		select {
		case <-gone:
			s.logger.Info("client went away", "n", n)
			return
		case <-tick:
			seq++
			msg := fmt.Sprintf(`{"type":"tick","conn":%d,"seq":%d}`, n, seq)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		case <-deadline.C:
			s.drop(conn, n)
			return
		}
	}
}

func (s *flapServer) drop(conn *websocket.Conn, n int64) {
	if s.cfg.CloseCode == websocket.CloseAbnormalClosure {
		s.logger.Info("dropping connection", "n", n)
		conn.UnderlyingConn().Close()
		return
	}

	s.logger.Info("closing connection", "n", n, "code", s.cfg.CloseCode, "reason", s.cfg.CloseReason)
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(s.cfg.CloseCode, s.cfg.CloseReason),
		time.Now().Add(time.Second),
	)
	// Give the client a moment to answer the close frame.
	time.Sleep(100 * time.Millisecond)
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	path := flag.String("path", "/ws", "WebSocket path")
	lifetime := flag.Duration("lifetime", 10*time.Second, "connection lifetime before dropping")
	code := flag.Int("code", websocket.CloseAbnormalClosure, "close code (1006 = drop without close frame)")
	reason := flag.String("reason", "", "close reason")
	tick := flag.Duration("tick", time.Second, "data message interval (0 = none)")
	rejectEvery := flag.Int("reject-every", 0, "reject every Nth upgrade with 503 (0 = never)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	srv := newFlapServer(Config{
		Lifetime:     *lifetime,
		CloseCode:    *code,
		CloseReason:  *reason,
		TickInterval: *tick,
		RejectEvery:  *rejectEvery,
	}, logger)

	mux := http.NewServeMux()
	mux.Handle(*path, srv)

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("flapserver listening", "addr", *addr, "path", *path, "lifetime", *lifetime, "code", *code)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

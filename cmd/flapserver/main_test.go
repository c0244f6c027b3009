package main

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T, server *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestFlapServer_CloseFrame(t *testing.T) {
	srv := newFlapServer(Config{
		Lifetime:    50 * time.Millisecond,
		CloseCode:   4001,
		CloseReason: "session expired",
	}, slog.Default())
	server := httptest.NewServer(srv)
	defer server.Close()

	conn, _, err := dial(t, server)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()

	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("error = %v, want *websocket.CloseError", err)
	}
	if closeErr.Code != 4001 || closeErr.Text != "session expired" {
		t.Errorf("close = %d %q", closeErr.Code, closeErr.Text)
	}
}

func TestFlapServer_AbruptDrop(t *testing.T) {
	srv := newFlapServer(Config{
		Lifetime:  50 * time.Millisecond,
		CloseCode: websocket.CloseAbnormalClosure,
	}, slog.Default())
	server := httptest.NewServer(srv)
	defer server.Close()

	conn, _, err := dial(t, server)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseAbnormalClosure) {
		t.Errorf("error = %v, want abnormal closure", err)
	}
}

func TestFlapServer_Ticks(t *testing.T) {
	srv := newFlapServer(Config{
		Lifetime:     time.Second,
		CloseCode:    websocket.CloseNormalClosure,
		TickInterval: 10 * time.Millisecond,
	}, slog.Default())
	server := httptest.NewServer(srv)
	defer server.Close()

	conn, _, err := dial(t, server)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != `{"type":"tick","conn":1,"seq":1}` {
		t.Errorf("message = %s", data)
	}
}

func TestFlapServer_RejectEvery(t *testing.T) {
	srv := newFlapServer(Config{
		Lifetime:    time.Second,
		CloseCode:   websocket.CloseNormalClosure,
		RejectEvery: 2,
	}, slog.Default())
	server := httptest.NewServer(srv)
	defer server.Close()

	first, _, err := dial(t, server)
	if err != nil {
		t.Fatalf("first dial failed: %v", err)
	}
	defer first.Close()

	_, resp, err := dial(t, server)
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Fatalf("second dial error = %v, want ErrBadHandshake", err)
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("second dial response = %v", resp)
	}
}

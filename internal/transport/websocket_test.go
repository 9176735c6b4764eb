package transport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"transitboard/internal/conn"
)

var upgrader = websocket.Upgrader{}

// echoServer upgrades each request, sends greeting, then echoes frames until
// the client closes.
func echoServer(t *testing.T, greeting string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		if greeting != "" {
			ws.WriteMessage(websocket.TextMessage, []byte(greeting))
		}
		for {
			mt, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			ws.WriteMessage(mt, data)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestSocket() *WebSocket {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// Callbacks run inline; tests synchronize on channels instead of a loop.
	return NewWebSocket(logger, func(fn func()) { fn() })
}

func waitEvent(t *testing.T, events <-chan conn.Event, want conn.Event) {
	t.Helper()
	select {
	case got := <-events:
		if got != want {
			t.Fatalf("event = %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event %v", want)
	}
}

func TestWebSocket_OpenReceiveClose(t *testing.T) {
	srv := echoServer(t, "hello")

	w := newTestSocket()
	events := make(chan conn.Event, 8)
	messages := make(chan []byte, 8)
	w.OnEvent(func(ev conn.Event) { events <- ev })
	w.OnMessage(func(data []byte) { messages <- data })

	if err := w.Open(wsURL(srv)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !w.IsOpen() {
		t.Error("IsOpen() = false after successful Open")
	}
	waitEvent(t, events, conn.EventOpened)

	select {
	case data := <-messages:
		if string(data) != "hello" {
			t.Errorf("message = %q, want hello", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for greeting")
	}

	// Round trip through the echo handler.
	if err := w.Send([]byte("ping payload")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case data := <-messages:
		if string(data) != "ping payload" {
			t.Errorf("echo = %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echo")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	waitEvent(t, events, conn.EventClosed)
	if w.IsOpen() {
		t.Error("IsOpen() = true after Close")
	}
}

func TestWebSocket_ServerDropEmitsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ws.Close()
	}))
	t.Cleanup(srv.Close)

	w := newTestSocket()
	events := make(chan conn.Event, 8)
	w.OnEvent(func(ev conn.Event) { events <- ev })

	if err := w.Open(wsURL(srv)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	waitEvent(t, events, conn.EventOpened)
	waitEvent(t, events, conn.EventClosed)

	if w.IsOpen() {
		t.Error("IsOpen() = true after server dropped the connection")
	}
}

func TestWebSocket_OpenFailure(t *testing.T) {
	w := newTestSocket()
	if err := w.Open("ws://127.0.0.1:1/ws"); err == nil {
		t.Fatal("Open against a closed port should fail")
	}
	if w.IsOpen() {
		t.Error("IsOpen() = true after failed Open")
	}
}

func TestWebSocket_SendWithoutOpen(t *testing.T) {
	w := newTestSocket()
	if err := w.Send([]byte("x")); err != ErrNotConnected {
		t.Errorf("Send error = %v, want ErrNotConnected", err)
	}
}

func TestWebSocket_OpenIsIdempotentWhileConnected(t *testing.T) {
	srv := echoServer(t, "")

	w := newTestSocket()
	events := make(chan conn.Event, 8)
	w.OnEvent(func(ev conn.Event) { events <- ev })

	if err := w.Open(wsURL(srv)); err != nil {
		t.Fatalf("Open: %v", err)
	}
	waitEvent(t, events, conn.EventOpened)

	if err := w.Open(wsURL(srv)); err != nil {
		t.Fatalf("second Open: %v", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("second Open emitted %v, want nothing", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

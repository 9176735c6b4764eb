// Package transport adapts a WebSocket client to the connection manager's
// session interface. Inbound frames and lifecycle events are handed to a
// dispatch function so they execute on the device loop, never on the read
// goroutine.
package transport

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"transitboard/internal/conn"
)

// ErrNotConnected is returned by Send when no session is open.
var ErrNotConnected = errors.New("transport: not connected")

const dialTimeout = 20 * time.Second

// WebSocket implements conn.Session over gorilla/websocket.
type WebSocket struct {
	logger   *slog.Logger
	dispatch func(func())

	onMessage func([]byte)
	onEvent   func(conn.Event)

	mu sync.Mutex
	ws *websocket.Conn
}

// NewWebSocket creates an adapter. dispatch posts callbacks onto the device
// loop (typically Loop.Defer).
func NewWebSocket(logger *slog.Logger, dispatch func(func())) *WebSocket {
	return &WebSocket{logger: logger, dispatch: dispatch}
}

// OnMessage registers the inbound frame handler.
func (w *WebSocket) OnMessage(fn func([]byte)) {
	w.onMessage = fn
}

// OnEvent registers the lifecycle event handler.
func (w *WebSocket) OnEvent(fn func(conn.Event)) {
	w.onEvent = fn
}

// Open dials the server and starts the read pump. Blocks until the
// handshake completes or fails.
func (w *WebSocket) Open(url string) error {
	w.mu.Lock()
	if w.ws != nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return err
	}

	// Keep the default pong reply; surface the ping to the manager.
	pingHandler := ws.PingHandler()
	ws.SetPingHandler(func(appData string) error {
		w.emitEvent(conn.EventPing)
		return pingHandler(appData)
	})
	ws.SetPongHandler(func(string) error {
		w.emitEvent(conn.EventPong)
		return nil
	})

	w.mu.Lock()
	w.ws = ws
	w.mu.Unlock()

	go w.readPump(ws)
	w.emitEvent(conn.EventOpened)
	return nil
}

// readPump delivers inbound frames until the connection drops, then emits
// exactly one EventClosed.
func (w *WebSocket) readPump(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug("read pump ended", "error", err)
			}
			break
		}
		if w.onMessage != nil {
			msg := data
			w.dispatch(func() { w.onMessage(msg) })
		}
	}

	w.mu.Lock()
	if w.ws == ws {
		w.ws = nil
	}
	w.mu.Unlock()
	ws.Close()
	w.emitEvent(conn.EventClosed)
}

// Close tears down the current session, if any. The read pump emits the
// closed event.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	ws := w.ws
	w.ws = nil
	w.mu.Unlock()

	if ws == nil {
		return nil
	}
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return ws.Close()
}

// Send writes a text frame on the open session.
func (w *WebSocket) Send(data []byte) error {
	w.mu.Lock()
	ws := w.ws
	w.mu.Unlock()

	if ws == nil {
		return ErrNotConnected
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// IsOpen reports whether a session is currently established.
func (w *WebSocket) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ws != nil
}

func (w *WebSocket) emitEvent(ev conn.Event) {
	if w.onEvent == nil {
		return
	}
	w.dispatch(func() { w.onEvent(ev) })
}

package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/statetree/pkg/reactive"
)

// FrameType identifies a splice stream frame.
type FrameType string

const (
	// FrameHello is the first frame of a stream and carries a snapshot.
	FrameHello FrameType = "hello"

	// FrameSplice carries one splice in debug JSON form.
	FrameSplice FrameType = "splice"
)

// Frame is sent to stream clients as a JSON text message.
type Frame struct {
	Type      FrameType       `json:"type"`
	Stream    string          `json:"stream,omitempty"`
	Node      int             `json:"node,omitempty"`
	Namespace int             `json:"namespace,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

// debugStreamer is implemented by namespaces that can report changes in
// debug JSON form, such as statetree.ListNamespace.
type debugStreamer interface {
	AddDebugListener(fn func(json.RawMessage)) reactive.Remover
}

// subscription is one websocket client following one namespace.
type subscription struct {
	id      string
	send    chan json.RawMessage
	remove  reactive.Remover
	dropped int
}

// deliver queues a frame without blocking the loop goroutine. Frames for a
// client that is not keeping up are dropped.
func (s *subscription) deliver(event json.RawMessage, logger *slog.Logger) {
	frame, err := json.Marshal(Frame{Type: FrameSplice, Event: event})
	if err != nil {
		return
	}
	select {
	case s.send <- frame:
	default:
		s.dropped++
		logger.Warn("inspect: stream buffer full, dropping frame",
			"stream", s.id, "dropped", s.dropped)
	}
}

// streamHub tracks open stream connections.
type streamHub struct {
	clients  map[*websocket.Conn]string
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

func newStreamHub() *streamHub {
	return &streamHub{
		clients: make(map[*websocket.Conn]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // debug tooling, any origin
			},
		},
	}
}

func newSubscription(buffer int) *subscription {
	return &subscription{
		id:   uuid.NewString(),
		send: make(chan json.RawMessage, buffer),
	}
}

func (h *streamHub) add(conn *websocket.Conn, id string) {
	h.mu.Lock()
	h.clients[conn] = id
	h.mu.Unlock()
}

func (h *streamHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// count returns the number of connected clients.
func (h *streamHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// close closes all client connections. Their handlers then clean up.
func (h *streamHub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// pump writes queued frames until send is closed or a write fails.
func pump(conn *websocket.Conn, send <-chan json.RawMessage) {
	for frame := range send {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			conn.Close()
			return
		}
	}
}

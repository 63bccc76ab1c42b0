package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/repcount/internal/counter"
	"github.com/ayusman/repcount/internal/monitoring"
	"github.com/ayusman/repcount/internal/poseio"
	"github.com/ayusman/repcount/internal/server/api"
)

const (
	writeWait      = 5 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// LiveSource is what the live endpoint needs from the application.
type LiveSource interface {
	api.Controller
	Subscribe() (<-chan counter.FrameResult, func())
}

// liveError is sent when an inbound frame cannot be evaluated.
type liveError struct {
	Error  string               `json:"error"`
	Result *counter.FrameResult `json:"result,omitempty"`
}

// LiveHandler streams every FrameResult to WebSocket clients as JSON and
// evaluates pose frames they send.
type LiveHandler struct {
	source  LiveSource
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.Mutex
}

// NewLiveHandler creates a new LiveHandler for source.
func NewLiveHandler(source LiveSource) *LiveHandler {
	return &LiveHandler{
		source:  source,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("websocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	writeMu := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = writeMu
	h.mu.Unlock()

	results, cancel := h.source.Subscribe()
	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	send := func(v any) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v)
	}

	go func() {
		defer close(done)
		for res := range results {
			if err := send(res); err != nil {
				conn.Close()
				for range results {
				}
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleFrame(data, send)
	}
}

func (h *LiveHandler) handleFrame(data []byte, send func(any) error) {
	frame, err := poseio.Decode(data)
	if err != nil {
		send(liveError{Error: err.Error()})
		return
	}
	res, err := api.EvaluateFrame(h.source, frame)
	if err != nil {
		send(liveError{Error: err.Error(), Result: &res})
	}
}

// Clients returns the number of connected clients.
func (h *LiveHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *LiveHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, writeMu := range h.clients {
		writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		writeMu.Unlock()
		conn.Close()
	}
}

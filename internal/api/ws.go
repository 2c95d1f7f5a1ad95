package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/sectorlag/pkg/logger"
)

// ProgressEvent is one progress update pushed to websocket clients.
type ProgressEvent struct {
	Stage string `json:"stage"`
	Done  int    `json:"done"`
	Total int    `json:"total"`
}

// Hub fans scan progress out to every connected websocket client. Its
// Broadcast method matches the engine progress hook signature, so it can
// be installed directly on an engine.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty progress hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Progress is read-only telemetry, any origin may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the request and keeps the connection registered until
// the client disconnects. Incoming messages are discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("progress client connected")

	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes one progress update to every client. Clients that fail
// to accept the write are dropped.
func (h *Hub) Broadcast(stage string, done, total int) {
	event := ProgressEvent{Stage: stage, Done: done, Total: total}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			h.logger.WithError(err).Debug("dropping progress client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

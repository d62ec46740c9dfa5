// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// client serializes writes to one connection; gorilla allows a single writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Hub tracks one live connection per user id.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Register replaces any earlier connection for userID.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = &client{conn: conn}
	slog.Info("WebSocket client registered", "user_id", userID)
}

// Unregister removes userID only while conn is still its current connection,
// so a stale socket closing does not evict a newer one.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID]; ok && c.conn == conn {
		delete(h.clients, userID)
		slog.Info("WebSocket client unregistered", "user_id", userID)
	}
}

// Connected reports whether userID has a live connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send writes a raw message. A user with no connection is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		slog.Debug("WebSocket client not found, message dropped", "user_id", userID)
		return nil
	}
	return c.write(message)
}

type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Notify sends {"event":..., "data":...} to userID, logging failures.
func (h *Hub) Notify(userID, event string, payload interface{}) {
	if userID == "" {
		return
	}
	message, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("Failed to encode notification", "event", event, "error", err)
		return
	}
	if err := h.Send(userID, message); err != nil {
		slog.Warn("Failed to deliver notification", "user_id", userID, "event", event, "error", err)
	}
}

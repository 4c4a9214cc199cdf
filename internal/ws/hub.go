// Package ws manages the per-client websocket connections used to push scan
// progress events.
package ws

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub owns all active connections. Delivery is at most once on a live
// connection: a failed write drops the connection, the event is not retried.
type Hub struct {
	mu           sync.Mutex
	connections  map[string]*connection
	onDisconnect func(connectionID string)
}

type connection struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func NewHub() *Hub {
	return &Hub{connections: map[string]*connection{}}
}

// SetDisconnectHandler registers the callback fired whenever a connection
// leaves the hub, however it left. Used to release the scan slot.
func (h *Hub) SetDisconnectHandler(fn func(connectionID string)) {
	h.mu.Lock()
	h.onDisconnect = fn
	h.mu.Unlock()
}

// Register adds a websocket and immediately delivers the connected event.
func (h *Hub) Register(socket *websocket.Conn) (string, error) {
	connectionID := "conn_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]

	h.mu.Lock()
	h.connections[connectionID] = &connection{ws: socket}
	h.mu.Unlock()

	log.Printf("WS_CONNECTED connection_id=%s", connectionID)

	h.Send(connectionID, map[string]any{
		"type":          "connected",
		"connection_id": connectionID,
		"message":       "Connexion WebSocket établie",
	}, true)

	return connectionID, nil
}

// Send delivers one JSON message to a connection. Returns false (and removes
// the connection) if it is gone or the write fails; never panics back to the
// caller. With flush, a short cooperative yield after the write lets the
// frame leave the local buffer before the next event is produced.
func (h *Hub) Send(connectionID string, message any, flush bool) bool {
	h.mu.Lock()
	conn, ok := h.connections[connectionID]
	h.mu.Unlock()
	if !ok {
		log.Printf("WS_SEND_SKIPPED connection_id=%s reason=not_connected", connectionID)
		return false
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("WS_SEND_FAILED connection_id=%s error=%v", connectionID, err)
		return false
	}

	conn.writeMu.Lock()
	err = conn.ws.WriteMessage(websocket.TextMessage, payload)
	conn.writeMu.Unlock()
	if err != nil {
		log.Printf("WS_SEND_FAILED connection_id=%s error=%v", connectionID, err)
		h.Disconnect(connectionID)
		return false
	}

	if flush {
		time.Sleep(time.Millisecond)
	}
	return true
}

// Disconnect removes a connection and fires the disconnect handler exactly
// once per connection.
func (h *Hub) Disconnect(connectionID string) {
	h.mu.Lock()
	conn, ok := h.connections[connectionID]
	if ok {
		delete(h.connections, connectionID)
	}
	handler := h.onDisconnect
	h.mu.Unlock()

	if !ok {
		return
	}

	_ = conn.ws.Close()
	log.Printf("WS_DISCONNECTED connection_id=%s", connectionID)

	if handler != nil {
		handler(connectionID)
	}
}

func (h *Hub) IsConnected(connectionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.connections[connectionID]
	return ok
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// ActiveIDs returns a snapshot of the live connection ids.
func (h *Hub) ActiveIDs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	return ids
}

package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local-first app, the API is not exposed publicly
	},
}

// Hub fans flow milestones (registry refreshes, sent letters) out to
// connected websocket clients.
type Hub struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// HandleEventsWebSocket upgrades the connection and keeps it registered
// until the client goes away.
func (h *Hub) HandleEventsWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	h.mutex.Unlock()
	zap.S().Debugw("client connected to /ws/events")

	for {
		if _, _, err := conn.NextReader(); err != nil {
			h.mutex.Lock()
			delete(h.clients, conn)
			h.mutex.Unlock()
			conn.Close()
			break
		}
	}
}

// Broadcast sends an event to every connected client. Dead connections
// are dropped on write failure.
func (h *Hub) Broadcast(event string, payload interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.clients {
		err := conn.WriteJSON(map[string]interface{}{
			"event": event,
			"data":  payload,
		})
		if err != nil {
			zap.S().Warnw("dropping websocket client", "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans collection-change events out to connected WebSocket clients. Views
// watch the refresh counter in these events to know when to reload their
// lists.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// CollectionEvent announces that a user's persisted collections changed.
type CollectionEvent struct {
	Type      string    `json:"type"` // "collections.changed"
	UserID    string    `json:"user_id"`
	List      string    `json:"list,omitempty"`
	CatalogID int64     `json:"catalog_id,omitempty"`
	Refresh   int64     `json:"refresh"` // monotonic per-user counter
	At        time.Time `json:"at"`
}

type Stats struct {
	WSClients int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.clients)}
}

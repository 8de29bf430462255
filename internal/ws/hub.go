package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Event is the envelope for every server push.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	EventMessageCreated      = "message_created"
	EventConversationUpdated = "conversation_updated"
	EventTyping              = "typing"
)

// Hub manages active WebSocket connections keyed by user ID and provides
// helper methods to broadcast events to one or more users.
type Hub struct {
	mu    sync.RWMutex
	conns map[int64]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[int64]map[*websocket.Conn]struct{}),
	}
}

// Register adds a connection for the given user.
func (h *Hub) Register(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// Unregister removes a connection for the given user.
func (h *Hub) Unregister(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.conns, userID)
		}
	}
}

// BroadcastToUsers sends the event to all active connections of the given
// user IDs. Failed connections are closed; removal happens on the next
// Register/Unregister.
func (h *Hub) BroadcastToUsers(userIDs []int64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, uid := range userIDs {
		conns, ok := h.conns[uid]
		if !ok {
			continue
		}
		for conn := range conns {
			if err := conn.WriteJSON(ev); err != nil {
				conn.Close()
			}
		}
	}
}

package websocket

import (
	"sync"

	"github.com/velastore/velastore-backend/pkg/logger"
)

// Client is one connected websocket session for a user.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// Hub tracks connected clients per user and fans messages out to every
// session the user has open (multi-device support).
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run processes register/unregister events. Call in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clientList, ok := h.clients[client.UserID]; ok {
				newList := make([]*Client, 0, len(clientList))
				for _, c := range clientList {
					if c != client {
						newList = append(newList, c)
					}
				}
				if len(newList) == 0 {
					delete(h.clients, client.UserID)
				} else {
					h.clients[client.UserID] = newList
				}
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id": client.UserID,
			})
		}
	}
}

// Register enqueues a client for registration.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister enqueues a client for removal.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser delivers a message to every open session of the user.
// Sessions with a full send buffer are skipped rather than blocked on.
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- message:
		default:
			logger.Warn("Dropping websocket message: send buffer full", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

package websocket

import (
	"sync"

	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
)

// Hub tracks live session connections. Session traffic flows directly between
// each client and its orchestrator; the hub is bookkeeping: registration,
// connection counts, log context.
type Hub struct {
	// Registered clients map: UserID -> list of connections (multi-device)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Dedicated logger
	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		logger:     log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.mu.Lock()
			removed := false
			if clients, ok := h.clients[client.UserID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.UserID] = append(clients[:i], clients[i+1:]...)
						removed = true
						break
					}
				}
				if len(h.clients[client.UserID]) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
			if removed {
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"user_id": client.UserID})
			}
		}
	}
}

// Count reports the number of live connections, for the health endpoint.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

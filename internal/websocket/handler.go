package websocket

import (
	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/service"

	"github.com/gofiber/websocket/v2"
)

// ServeWs owns one live-session connection from accept to close. It blocks
// until the peer disconnects or the session finishes.
func ServeWs(hub *Hub, conn *websocket.Conn, userID string, sessions service.ISessionService, log logger.ILogger) {
	client := &Client{
		Hub:      hub,
		Conn:     conn,
		UserID:   userID,
		Send:     make(chan []byte, 256),
		sessions: sessions,
		log:      log,
		done:     make(chan struct{}),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

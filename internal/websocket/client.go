package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/SLatz18/thoughtsAI/internal/dto"
	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/service"
	"github.com/SLatz18/thoughtsAI/internal/session"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Base64 audio frames are the largest inbound payload.
	maxMessageSize = 1024 * 1024
)

// Client owns one live-session connection. The read side parses the inbound
// protocol and drives the session orchestrator; the write side delivers the
// orchestrator's events back to the browser.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// UserID associated with this connection.
	UserID string

	// Buffered channel of outbound messages. Never closed; emitters stop
	// once done is closed.
	Send chan []byte

	sessions service.ISessionService
	log      logger.ILogger

	// orch is the running session, nil until start_session. Only readPump
	// touches it.
	orch *session.Orchestrator

	done      chan struct{}
	closeOnce sync.Once
}

// shutdown releases the write side exactly once.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Emit implements session.Sink. The session goroutine calls it, so it must
// not block: a consumer that stops draining costs events, not engine stalls.
func (c *Client) Emit(event session.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.Error("WS", "Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return
	}

	select {
	case c.Send <- data:
	case <-c.done:
	default:
		c.log.Warn("WS", "Send buffer full, dropping client", map[string]interface{}{"user_id": c.UserID})
		c.Hub.unregister <- c
		c.shutdown()
	}
}

func (c *Client) sendError(message string) {
	c.Emit(session.NewErrorEvent(message))
}

// readPump pumps inbound protocol messages into the session. A read error
// means the peer is gone, which implicitly ends any running session.
func (c *Client) readPump() {
	defer func() {
		if c.orch != nil {
			c.orch.End()
		}
		c.Hub.unregister <- c
		c.shutdown()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("WS", "Connection closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			break
		}
		c.handleMessage(raw)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg dto.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch msg.Type {
	case dto.WSTypeStartSession:
		c.handleStart(msg.DocumentId)
	case dto.WSTypeAudio:
		c.handleAudio(msg.Data)
	case dto.WSTypeText:
		c.handleText(msg.Content)
	case dto.WSTypeEndSession:
		c.handleEnd()
	case dto.WSTypeGetDocument:
		c.handleGetDocument()
	case dto.WSTypePing:
		c.Emit(session.NewPongEvent())
	default:
		c.sendError(fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (c *Client) handleStart(documentId string) {
	if c.orch != nil {
		c.sendError("Session already started")
		return
	}

	orch, err := c.sessions.StartSession(context.Background(), c.UserID, documentId, c)
	if err != nil {
		c.log.Error("WS", "Failed to start session", map[string]interface{}{
			"user_id": c.UserID,
			"error":   err.Error(),
		})
		c.sendError(fmt.Sprintf("Failed to start session: %v", err))
		return
	}
	c.orch = orch
}

func (c *Client) handleAudio(b64 string) {
	if c.orch == nil {
		c.sendError("No active session")
		return
	}
	if b64 == "" {
		return
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		c.sendError("Invalid audio payload")
		return
	}
	if err := c.orch.PushAudio(data); err != nil {
		c.sendError("Session already ended")
	}
}

func (c *Client) handleText(content string) {
	if c.orch == nil {
		c.sendError("No active session")
		return
	}
	if content == "" {
		return
	}
	if err := c.orch.PushText(content); err != nil {
		c.sendError("Session already ended")
	}
}

func (c *Client) handleEnd() {
	if c.orch == nil {
		c.sendError("No active session")
		return
	}
	if err := c.orch.End(); err != nil {
		c.sendError("Session already ended")
		return
	}

	// The server closes the socket once the final snapshot went out, the
	// same order the clients expect from a finished session.
	orch := c.orch
	go func() {
		<-orch.Done()
		c.shutdown()
	}()
}

func (c *Client) handleGetDocument() {
	if c.orch == nil {
		c.sendError("No active session")
		return
	}
	if err := c.orch.RequestDocument(); err != nil {
		c.sendError("Session already ended")
	}
}

// writePump delivers outbound messages and keeps the connection alive with
// pings. One JSON document per frame, clients parse frames whole.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			// Flush what is queued, then say goodbye.
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

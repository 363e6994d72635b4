package handler

import (
	"os"

	"github.com/SLatz18/thoughtsAI/internal/pkg/logger"
	"github.com/SLatz18/thoughtsAI/internal/pkg/serverutils"
	"github.com/SLatz18/thoughtsAI/internal/service"
	internalWS "github.com/SLatz18/thoughtsAI/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type SessionHandler struct {
	hub      *internalWS.Hub
	sessions service.ISessionService
	logger   logger.ILogger
}

func NewSessionHandler(hub *internalWS.Hub, sessions service.ISessionService, log logger.ILogger) *SessionHandler {
	return &SessionHandler{
		hub:      hub,
		sessions: sessions,
		logger:   log,
	}
}

func (h *SessionHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/ws/session", h.ServeWs)
}

// ServeWs upgrades the connection and hands it to the websocket client loop.
func (h *SessionHandler) ServeWs(c *fiber.Ctx) error {
	// Browsers cannot set headers on a websocket handshake, so the token
	// arrives as a query param. Tooling may still use the header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	userID := serverutils.UserIDFromToken(tokenStr)
	if userID == "" {
		if os.Getenv("AUTH_REQUIRED") == "true" {
			h.logger.Warn("SessionHandler", "Invalid token in WS handshake", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		userID = serverutils.DefaultUserID
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("SessionHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
			internalWS.ServeWs(h.hub, conn, userID, h.sessions, h.logger)
			h.logger.Info("SessionHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

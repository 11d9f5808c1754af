package handler

import (
	"encoding/json"

	"aether-base-be/internal/dto"
	"aether-base-be/internal/pkg/logger"
	"aether-base-be/internal/pkg/serverutils"
	"aether-base-be/internal/service"
	internalWS "aether-base-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NotificationHandler upgrades the session socket that carries snapshots and
// notifications.
type NotificationHandler struct {
	chatbot service.IChatbotService
	tokens  *serverutils.SessionTokens
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(chatbot service.IChatbotService, tokens *serverutils.SessionTokens, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		chatbot: chatbot,
		tokens:  tokens,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs handles websocket requests from the peer. The first frame is the
// current snapshot so a reconnecting client never renders stale state.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.TokenFromRequest(c)
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')")
	}

	sessionID, err := h.tokens.Parse(tokenStr)
	if err != nil {
		h.logger.Warn("NotificationHandler", "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	snapshot, err := h.chatbot.GetSnapshot(c.UserContext(), sessionID)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	initial, err := json.Marshal(dto.WsEnvelope{Type: dto.WsTypeSessionSnapshot, Data: snapshot})
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, initial)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}

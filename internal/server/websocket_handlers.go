package server

import (
	"log/slog"

	"agora/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketUpgradeRequired rejects plain HTTP requests to the events endpoint.
func (s *Server) WebsocketUpgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebsocketHandler streams realtime events to the authenticated user.
// Connect with a ticket from POST /api/ws/ticket: /api/ws?ticket=<ticket>
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok || userID == 0 {
			middleware.Logger.Warn("websocket: unauthenticated connection attempt")
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket: register failed",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("websocket: user connected", slog.Uint64("user_id", uint64(userID)))
		if msg, ok := encodeEvent("connected", map[string]interface{}{"user_id": userID}); ok {
			client.TrySend([]byte(msg))
		}

		go client.WritePump()
		client.ReadPump()
		middleware.Logger.Info("websocket: user disconnected", slog.Uint64("user_id", uint64(userID)))
	}, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	})
}

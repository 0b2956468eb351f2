package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/pkg/logger"
)

// WebSocketHandler streams pipeline and ingestion events to connected
// clients. The connection is push-only: inbound messages are read solely to
// detect the peer closing.
type WebSocketHandler struct {
	hub *EventHub
}

func NewWebSocketHandler(hub *EventHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	events := h.hub.Subscribe()
	done := make(chan struct{})

	defer func() {
		h.hub.Unsubscribe(events)
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			err := c.WriteJSON(event)
			if err != nil {
				logger.Warn("Failed to write WebSocket event", zap.Error(err))
				return
			}
		}
	}
}

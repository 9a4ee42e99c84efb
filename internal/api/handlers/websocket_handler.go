package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/metrics"
	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/logger"
)

type WebSocketHandler struct {
	service *triage.Service
}

func NewWebSocketHandler(service *triage.Service) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
	}
}

// HandleConnection serves one classification stream. Each inbound message is
// classified independently and answered with ack, result, and complete
// frames so clients can show progress.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := uuid.New().String()

	metrics.WebsocketConnections.Inc()
	logger.Info("WebSocket session opened", zap.String("session_id", sessionID))

	defer func() {
		c.Close()
		metrics.WebsocketConnections.Dec()
		logger.Info("WebSocket session closed", zap.String("session_id", sessionID))
	}()

	for {
		var msg struct {
			Type        string `json:"type"`
			Subject     string `json:"subject"`
			Description string `json:"description"`
			Smart       bool   `json:"smart"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("Failed to read WebSocket message",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			}
			break
		}

		if msg.Type != "classify" {
			h.sendError(c, "Unsupported message type")
			continue
		}

		if err := h.classify(c, sessionID, msg.Subject, msg.Description, msg.Smart); err != nil {
			logger.Error("WebSocket classification failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			h.sendError(c, classifyErrorMessage(err))
		}
	}
}

func (h *WebSocketHandler) classify(c *websocket.Conn, sessionID, subject, description string, smart bool) error {
	ctx := context.Background()

	err := c.WriteJSON(map[string]interface{}{
		"type":       "ack",
		"session_id": sessionID,
	})
	if err != nil {
		return err
	}

	var result *triage.Result
	var payload interface{}

	if smart {
		smartResult, err := h.service.ClassifySmart(ctx, subject, description)
		if err != nil {
			return err
		}
		result = &smartResult.Result
		payload = smartResult
	} else {
		result, err = h.service.Classify(ctx, subject, description)
		if err != nil {
			return err
		}
		payload = result
	}

	err = c.WriteJSON(map[string]interface{}{
		"type":   "result",
		"result": payload,
	})
	if err != nil {
		return err
	}

	return c.WriteJSON(map[string]interface{}{
		"type":          "complete",
		"ticket_id":     result.TicketID,
		"category":      result.Category,
		"confidence":    result.Confidence,
		"action":        result.Routing.Action,
		"processing_ms": result.ProcessingMS,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

func classifyErrorMessage(err error) string {
	if errors.Is(err, triage.ErrModelNotLoaded) {
		return "Model is not loaded"
	}
	return "Failed to classify ticket"
}

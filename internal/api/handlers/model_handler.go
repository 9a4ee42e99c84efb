package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/logger"
)

type ModelHandler struct {
	service *triage.Service
}

func NewModelHandler(service *triage.Service) *ModelHandler {
	return &ModelHandler{
		service: service,
	}
}

func (h *ModelHandler) HandleModelInfo(c *fiber.Ctx) error {
	return c.JSON(h.service.ModelInfo())
}

func (h *ModelHandler) HandleReload(c *fiber.Ctx) error {
	if err := h.service.Reload(c.Context()); err != nil {
		logger.Error("Model reload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reload model",
		})
	}

	info := h.service.ModelInfo()
	return c.JSON(fiber.Map{
		"status":        "reloaded",
		"model_version": info.Version,
		"vocab_size":    info.VocabSize,
	})
}

func (h *ModelHandler) HandleHealth(c *fiber.Ctx) error {
	health := h.service.HealthCheck()

	status := fiber.StatusOK
	if health.Status != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":          health.Status,
		"model_loaded":    health.ModelLoaded,
		"test_prediction": health.TestPrediction,
		"uptime_seconds":  health.UptimeSeconds,
		"time":            time.Now().Unix(),
	})
}

func (h *ModelHandler) HandleReady(c *fiber.Ctx) error {
	if err := h.service.Ready(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

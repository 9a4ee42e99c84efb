package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/logger"
)

const DefaultMaxBatchSize = 50

type ClassifyHandler struct {
	service      *triage.Service
	maxBatchSize int
}

func NewClassifyHandler(service *triage.Service, maxBatchSize int) *ClassifyHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &ClassifyHandler{
		service:      service,
		maxBatchSize: maxBatchSize,
	}
}

func (h *ClassifyHandler) HandleClassify(c *fiber.Ctx) error {
	var req struct {
		Subject     string `json:"subject"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.Classify(c.Context(), req.Subject, req.Description)
	if err != nil {
		return classificationError(c, err)
	}

	return c.JSON(result)
}

func (h *ClassifyHandler) HandleClassifySmart(c *fiber.Ctx) error {
	var req struct {
		Subject     string `json:"subject"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.ClassifySmart(c.Context(), req.Subject, req.Description)
	if err != nil {
		return classificationError(c, err)
	}

	return c.JSON(result)
}

func (h *ClassifyHandler) HandleClassifyBatch(c *fiber.Ctx) error {
	var req struct {
		Tickets []triage.TicketInput `json:"tickets"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Tickets) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one ticket is required",
		})
	}

	if len(req.Tickets) > h.maxBatchSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Batch exceeds maximum size",
			"max_size": h.maxBatchSize,
		})
	}

	batch, err := h.service.ClassifyBatch(c.Context(), req.Tickets)
	if err != nil {
		return classificationError(c, err)
	}

	return c.JSON(batch)
}

func classificationError(c *fiber.Ctx, err error) error {
	if errors.Is(err, triage.ErrModelNotLoaded) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Model is not loaded",
		})
	}

	logger.Error("Classification failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to classify ticket",
	})
}

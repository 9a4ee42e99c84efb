package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/logger"
)

type TicketHandler struct {
	service *triage.Service
}

func NewTicketHandler(service *triage.Service) *TicketHandler {
	return &TicketHandler{
		service: service,
	}
}

func (h *TicketHandler) HandleGetTicket(c *fiber.Ctx) error {
	reference := c.Params("id")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Ticket reference is required",
		})
	}

	detail, err := h.service.Ticket(reference)
	if err != nil {
		if errors.Is(err, triage.ErrTicketNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Ticket not found",
			})
		}
		logger.Error("Failed to load ticket", zap.String("reference", reference), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load ticket",
		})
	}

	return c.JSON(detail)
}

func (h *TicketHandler) HandleSimilarTickets(c *fiber.Ctx) error {
	reference := c.Params("id")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Ticket reference is required",
		})
	}

	topK, _ := strconv.Atoi(c.Query("top_k", "5"))

	similar, err := h.service.SimilarTickets(c.Context(), reference, topK)
	if err != nil {
		switch {
		case errors.Is(err, triage.ErrVectorIndexDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Vector index is not enabled",
			})
		case errors.Is(err, triage.ErrTicketNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Ticket not found",
			})
		case errors.Is(err, triage.ErrModelNotLoaded):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Model is not loaded",
			})
		}
		logger.Error("Similar ticket search failed", zap.String("reference", reference), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search similar tickets",
		})
	}

	return c.JSON(fiber.Map{
		"reference": reference,
		"similar":   similar,
	})
}

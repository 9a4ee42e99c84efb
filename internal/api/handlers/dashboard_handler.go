package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/internal/triage"
	"github.com/ticket-triage/backend/pkg/logger"
)

type DashboardHandler struct {
	service *triage.Service
}

func NewDashboardHandler(service *triage.Service) *DashboardHandler {
	return &DashboardHandler{
		service: service,
	}
}

func (h *DashboardHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.DashboardStats()
	if err != nil {
		logger.Error("Failed to aggregate dashboard stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard stats",
		})
	}

	return c.JSON(stats)
}

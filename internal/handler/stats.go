package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

type StatsHandler struct {
	guard *service.LinkGuardService
}

func NewStatsHandler(guard *service.LinkGuardService) *StatsHandler {
	return &StatsHandler{guard: guard}
}

// GetViolationStats handles GET /api/violations/stats
func (h *StatsHandler) GetViolationStats(c fiber.Ctx) error {
	stats, err := h.guard.ViolationStats(c.Context())
	if err != nil {
		middleware.Logger.Error().Err(err).Msg("violation stats failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch statistics")
	}

	return c.JSON(stats)
}

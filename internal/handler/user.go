package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

// HistoryDays bounds how far back the audited history goes.
const HistoryDays = 30

// ViolationHistory lists audited violations for moderators.
type ViolationHistory interface {
	ListByUser(ctx context.Context, userID string, since time.Time) ([]model.Violation, error)
}

type UserHandler struct {
	guard   *service.LinkGuardService
	history ViolationHistory
}

// NewUserHandler creates the moderation handler. history may be nil when no
// audit store is configured.
func NewUserHandler(guard *service.LinkGuardService, history ViolationHistory) *UserHandler {
	return &UserHandler{guard: guard, history: history}
}

// Standing handles GET /api/users/:userId/standing
func (h *UserHandler) Standing(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.guard.UserStanding(c.Context(), userID)
	if err != nil {
		middleware.Logger.Error().Err(err).Msg("standing lookup failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup standing")
	}

	return c.JSON(resp)
}

// Violations handles GET /api/users/:userId/violations
func (h *UserHandler) Violations(c fiber.Ctx) error {
	if h.history == nil {
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "UNAVAILABLE", "Violation audit is not configured")
	}

	userID, errMsg := middleware.ValidateUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	since := time.Now().AddDate(0, 0, -HistoryDays)
	violations, err := h.history.ListByUser(c.Context(), userID, since)
	if err != nil {
		middleware.Logger.Error().Err(err).Msg("violation history lookup failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup violations")
	}

	return c.JSON(fiber.Map{"userId": userID, "violations": violations})
}

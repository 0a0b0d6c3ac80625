package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

type LinkHandler struct {
	guard *service.LinkGuardService
}

func NewLinkHandler(guard *service.LinkGuardService) *LinkHandler {
	return &LinkHandler{guard: guard}
}

// ValidateLink handles POST /api/links/validate. Inspection only; nothing is recorded.
func (h *LinkHandler) ValidateLink(c fiber.Ctx) error {
	var req model.LinkValidateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if errMsg := middleware.ValidateURLLength(req.URL); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	res := h.guard.ValidateLink(req.URL)
	if !res.IsValid {
		observeRejections(string(res.Reason))
	}
	return c.JSON(res)
}

// ValidatePost handles POST /api/posts/validate. Every blocked link counts
// as a violation against userId.
func (h *LinkHandler) ValidatePost(c fiber.Ctx) error {
	var req model.PostValidateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	userID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if errMsg := middleware.ValidateContent(req.Content); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	format, errMsg := middleware.ValidateFormat(req.Format)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var (
		res model.ContentValidation
		err error
	)
	if format == "html" {
		res, err = h.guard.ValidatePostHTML(c.Context(), req.Content, userID)
	} else {
		res, err = h.guard.ValidatePostContent(c.Context(), req.Content, userID)
	}
	if err != nil {
		middleware.Logger.Error().Err(err).Msg("post validation failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to validate post")
	}

	observePostResult(res)
	return c.JSON(res)
}

func observePostResult(res model.ContentValidation) {
	if res.IsValid {
		return
	}
	if len(res.BlockedLinks) == 0 && res.Message == model.MessageUserSuspended {
		Metrics.SuspendedSubmissions.Inc()
		return
	}
	Metrics.ViolationsRecorded.Add(float64(len(res.BlockedLinks)))
	for _, b := range res.BlockedLinks {
		observeRejections(string(b.Reason))
	}
}

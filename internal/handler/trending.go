package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

type TrendingHandler struct {
	ranking *service.RankingService
	cache   *service.CacheService
}

func NewTrendingHandler(ranking *service.RankingService, cache *service.CacheService) *TrendingHandler {
	return &TrendingHandler{ranking: ranking, cache: cache}
}

// Get handles GET /api/trending
func (h *TrendingHandler) Get(c fiber.Ctx) error {
	return c.JSON(h.response())
}

// Replace handles PUT /api/trending. The set is replaced wholesale.
func (h *TrendingHandler) Replace(c fiber.Ctx) error {
	var req model.TrendingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	categories, errMsg := middleware.ValidateCategories(req.Categories)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	h.ranking.UpdateTrendingCategories(categories)
	if err := h.cache.InvalidateFeeds(c.Context()); err != nil {
		middleware.Logger.Warn().Err(err).Msg("feed cache invalidation failed")
	}

	middleware.Logger.Info().Strs("categories", categories).Msg("trending categories replaced")
	return c.JSON(h.response())
}

func (h *TrendingHandler) response() model.TrendingResponse {
	resp := model.TrendingResponse{Categories: h.ranking.TrendingCategories()}
	if season, ok := h.ranking.ActiveSeason(); ok {
		resp.Season = season.Name
	}
	return resp
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/model"
	"github.com/vitrine-app/vitrine-go/internal/repository"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

// MaxRankBatch caps caller-supplied batches on POST /api/feed/rank.
const MaxRankBatch = 1000

// ContentLister loads candidate posts for a feed.
type ContentLister interface {
	ListRecent(ctx context.Context, f repository.ContentFilter) ([]model.ContentItem, error)
}

type FeedHandler struct {
	content ContentLister
	ranking *service.RankingService
	cache   *service.CacheService
	now     func() time.Time
}

func NewFeedHandler(content ContentLister, ranking *service.RankingService, cache *service.CacheService) *FeedHandler {
	return &FeedHandler{content: content, ranking: ranking, cache: cache, now: time.Now}
}

// Feed handles GET /api/feed?category=X&limit=N
func (h *FeedHandler) Feed(c fiber.Ctx) error {
	category, errMsg := middleware.ValidateCategory(fiber.Query[string](c, "category"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	limit, errMsg := middleware.ParseLimit(fiber.Query[string](c, "limit"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	ctx := c.Context()

	cached, err := h.cache.GetFeed(ctx, category, limit)
	if err != nil {
		middleware.Logger.Warn().Err(err).Msg("feed cache read failed")
	}
	if cached != nil {
		Metrics.CacheHits.Inc()
		c.Set("X-Cache", "HIT")
		return c.JSON(cached)
	}
	Metrics.CacheMisses.Inc()

	items, err := h.content.ListRecent(ctx, repository.ContentFilter{Category: category, Limit: limit})
	if err != nil {
		middleware.Logger.Error().Err(err).Str("category", category).Msg("content listing failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load feed")
	}

	feed := h.rank(items)
	if err := h.cache.SetFeed(ctx, category, limit, feed); err != nil {
		middleware.Logger.Warn().Err(err).Msg("feed cache write failed")
	}

	c.Set("X-Cache", "MISS")
	return c.JSON(feed)
}

// Rank handles POST /api/feed/rank
func (h *FeedHandler) Rank(c fiber.Ctx) error {
	var req model.RankRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if len(req.Items) > MaxRankBatch {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "BATCH_TOO_LARGE",
			"At most 1000 items can be ranked per request")
	}

	return c.JSON(h.rank(req.Items))
}

func (h *FeedHandler) rank(items []model.ContentItem) *model.FeedResponse {
	timer := time.Now()
	ranked := h.ranking.Rank(items)
	Metrics.RankingDuration.Observe(time.Since(timer).Seconds())

	return &model.FeedResponse{
		Items:       ranked,
		Stats:       h.ranking.Stats(ranked),
		GeneratedAt: h.now().UTC(),
	}
}

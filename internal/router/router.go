package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitrine-app/vitrine-go/internal/handler"
	"github.com/vitrine-app/vitrine-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Health   *handler.HealthHandler
	Feed     *handler.FeedHandler
	Trending *handler.TrendingHandler
	Links    *handler.LinkHandler
	User     *handler.UserHandler
	Stats    *handler.StatsHandler
}

// Limiters holds the per-route rate limiters.
type Limiters struct {
	Feed  *middleware.RateLimiter
	Link  *middleware.RateLimiter
	Post  *middleware.RateLimiter
	Admin *middleware.RateLimiter
}

// DefaultLimiters returns the limits of the public API contract.
func DefaultLimiters() *Limiters {
	return &Limiters{
		Feed:  middleware.NewFeedRateLimiter(),
		Link:  middleware.NewLinkRateLimiter(),
		Post:  middleware.NewPostRateLimiter(),
		Admin: middleware.NewAdminRateLimiter(),
	}
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, l *Limiters, gatherer prometheus.Gatherer, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Probes and metrics (before API group, no rate limits)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler(gatherer))

	// API routes
	api := app.Group("/api")

	// Feed routes
	api.Get("/feed", l.Feed.Handler(), h.Feed.Feed)
	api.Post("/feed/rank", l.Feed.Handler(), h.Feed.Rank)

	// Trending routes
	api.Get("/trending", h.Trending.Get)
	api.Put("/trending", l.Admin.Handler(), h.Trending.Replace)

	// Link guard routes
	api.Post("/links/validate", l.Link.Handler(), h.Links.ValidateLink)
	api.Post("/posts/validate", l.Post.Handler(), h.Links.ValidatePost)

	// Moderation routes
	api.Get("/users/:userId/standing", h.User.Standing)
	api.Get("/users/:userId/violations", l.Admin.Handler(), h.User.Violations)
	api.Get("/violations/stats", l.Admin.Handler(), h.Stats.GetViolationStats)
}

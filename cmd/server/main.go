package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitrine-app/vitrine-go/internal/config"
	"github.com/vitrine-app/vitrine-go/internal/db"
	"github.com/vitrine-app/vitrine-go/internal/handler"
	"github.com/vitrine-app/vitrine-go/internal/middleware"
	"github.com/vitrine-app/vitrine-go/internal/repository"
	"github.com/vitrine-app/vitrine-go/internal/router"
	"github.com/vitrine-app/vitrine-go/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		middleware.InitLogger("info", "vitrine-api")
		middleware.Logger.Fatal().Err(err).Msg("invalid configuration")
	}
	middleware.InitLogger(cfg.LogLevel, "vitrine-api")
	log := middleware.Logger

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL, cfg.FeedCacheTTL, log)
	defer cache.Close()

	var ledger service.ViolationLedger
	switch cfg.LedgerBackend {
	case config.LedgerRedis:
		if !cache.Enabled() {
			log.Fatal().Msg("LEDGER_BACKEND=redis requires a reachable REDIS_URL")
		}
		ledger = service.NewRedisLedger(cache.Client(), service.ViolationWindow)
	default:
		ledger = service.NewMemoryLedger()
	}

	contentRepo := repository.NewContentRepo(pool)
	violationRepo := repository.NewViolationRepo(pool)

	ranking := service.NewRankingService(service.DefaultSeasons).
		WithClock(func() time.Time { return time.Now().In(loc) })
	guard := service.NewLinkGuardService(ledger, violationRepo, log.With().Str("component", "linkguard").Logger())

	worker := service.NewTrendingWorker(cfg.Trending.Refresh, contentRepo, ranking, cache,
		cfg.Trending.TopN, cfg.Trending.Lookback, log)
	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start trending worker")
	}
	defer worker.Stop()

	listener := service.NewContentListener(pool, cache, 5*time.Second, log)
	go listener.Start(ctx)

	handler.InitMetrics(prometheus.DefaultRegisterer, pool)

	app := fiber.New(fiber.Config{
		AppName:      "Vitrine API",
		ServerHeader: "Vitrine",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	router.Setup(app, &router.Handlers{
		Health:   handler.NewHealthHandler(pool, cache.Client(), cfg.LedgerBackend),
		Feed:     handler.NewFeedHandler(contentRepo, ranking, cache),
		Trending: handler.NewTrendingHandler(ranking, cache),
		Links:    handler.NewLinkHandler(guard),
		User:     handler.NewUserHandler(guard, violationRepo),
		Stats:    handler.NewStatsHandler(guard),
	}, router.DefaultLimiters(), prometheus.DefaultGatherer, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Str("ledger", cfg.LedgerBackend).
		Msg("Vitrine backend starting")
	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Version is reported by the readiness probe; overridden at link time.
var Version = "dev"

type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	ledger  string
	startAt time.Time
}

// NewHealthHandler creates the probe handler. ledger names the violation
// ledger backend ("memory" or "redis").
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, ledger string) *HealthHandler {
	return &HealthHandler{
		pool:    pool,
		rdb:     rdb,
		ledger:  ledger,
		startAt: time.Now(),
	}
}

// Live handles GET /health/live
func (h *HealthHandler) Live(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready handles GET /health/ready with dependency checks.
func (h *HealthHandler) Ready(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
	defer cancel()

	checks := make(fiber.Map)
	overallStatus := "healthy"

	// Database check
	checks["database"] = checkDB(ctx, h.pool)
	if dbCheck, ok := checks["database"].(fiber.Map); ok {
		if dbCheck["status"] != "up" {
			overallStatus = "degraded"
		}
	}

	// Redis check. A missing cache only degrades feeds, but the shared
	// ledger cannot work without it.
	checks["redis"] = checkRedis(ctx, h.rdb)
	if redisCheck, ok := checks["redis"].(fiber.Map); ok {
		redisStatus := redisCheck["status"]
		switch {
		case redisStatus == "down":
			overallStatus = "degraded"
		case redisStatus == "disabled" && h.ledger == "redis":
			overallStatus = "degraded"
		}
	}
	checks["ledger"] = fiber.Map{"backend": h.ledger}

	uptimeSeconds := int(time.Since(h.startAt).Seconds())

	resp := fiber.Map{
		"status":         overallStatus,
		"checks":         checks,
		"uptime_seconds": uptimeSeconds,
		"version":        Version,
	}

	status := fiber.StatusOK
	if overallStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(resp)
}

func checkDB(ctx context.Context, pool *pgxpool.Pool) fiber.Map {
	if pool == nil {
		return fiber.Map{"status": "down", "error": "not configured"}
	}

	start := time.Now()
	err := pool.Ping(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

func checkRedis(ctx context.Context, rdb *redis.Client) fiber.Map {
	if rdb == nil {
		return fiber.Map{
			"status": "disabled",
		}
	}

	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return fiber.Map{
			"status":     "down",
			"latency_ms": latency,
			"error":      "connection failed",
		}
	}
	return fiber.Map{
		"status":     "up",
		"latency_ms": latency,
	}
}

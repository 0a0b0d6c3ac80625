package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the Vitrine backend.
var Metrics = struct {
	LinkRejections       *prometheus.CounterVec
	ViolationsRecorded   prometheus.Counter
	SuspendedSubmissions prometheus.Counter
	RankingDuration      prometheus.Histogram
	RequestDuration      *prometheus.HistogramVec
	DBPoolActive         prometheus.GaugeFunc
	DBPoolIdle           prometheus.GaugeFunc
	RequestsInFlight     prometheus.Gauge
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
}{}

// InitMetrics creates all collectors and registers them with reg. Call once
// at startup; tests pass a fresh prometheus.NewRegistry().
func InitMetrics(reg prometheus.Registerer, pool *pgxpool.Pool) {
	Metrics.LinkRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_link_rejections_total",
			Help: "Total links rejected, by reason.",
		},
		[]string{"reason"},
	)

	Metrics.ViolationsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_violations_recorded_total",
			Help: "Total violations recorded against users.",
		},
	)

	Metrics.SuspendedSubmissions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_suspended_submissions_total",
			Help: "Submissions rejected because the user is suspended.",
		},
	)

	Metrics.RankingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vitrine_ranking_duration_seconds",
			Help:    "Duration of ranking a batch of content.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vitrine_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vitrine_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_feed_cache_hits_total",
			Help: "Total ranked-feed cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vitrine_feed_cache_misses_total",
			Help: "Total ranked-feed cache misses.",
		},
	)

	// DB pool gauges read live stats from pgxpool
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "vitrine_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "vitrine_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		reg.MustRegister(Metrics.DBPoolActive, Metrics.DBPoolIdle)
	}

	reg.MustRegister(
		Metrics.LinkRejections,
		Metrics.ViolationsRecorded,
		Metrics.SuspendedSubmissions,
		Metrics.RankingDuration,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(). Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	const users = "/api/users/"
	if rest, ok := strings.CutPrefix(path, users); ok && rest != "" {
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			return users + ":userId" + rest[i:]
		}
		return users + ":userId"
	}
	return path
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler(g prometheus.Gatherer) fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}

func observeRejections(reasons ...string) {
	for _, r := range reasons {
		Metrics.LinkRejections.WithLabelValues(r).Inc()
	}
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CategorySource reports the most engaged categories since a point in time.
type CategorySource interface {
	TopCategories(ctx context.Context, since time.Time, n int) ([]string, error)
}

// FeedInvalidator drops cached rankings once the trending set changes.
type FeedInvalidator interface {
	InvalidateFeeds(ctx context.Context) error
}

// TrendingWorker periodically recomputes the trending categories from recent
// engagement and swaps them into the ranking service.
type TrendingWorker struct {
	cron     *cron.Cron
	spec     string
	source   CategorySource
	ranking  *RankingService
	cache    FeedInvalidator
	topN     int
	lookback time.Duration
	log      zerolog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewTrendingWorker creates a worker firing on the cron spec (e.g. "@every 15m").
// cache may be nil.
func NewTrendingWorker(spec string, source CategorySource, ranking *RankingService, cache FeedInvalidator,
	topN int, lookback time.Duration, log zerolog.Logger) *TrendingWorker {
	return &TrendingWorker{
		cron:     cron.New(),
		spec:     spec,
		source:   source,
		ranking:  ranking,
		cache:    cache,
		topN:     topN,
		lookback: lookback,
		log:      log.With().Str("worker", "trending").Logger(),
		now:      time.Now,
	}
}

// Start registers the job and starts the scheduler. It also refreshes once
// immediately so the trending set is populated without waiting for the first tick.
func (w *TrendingWorker) Start(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.spec, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule trending refresh %q: %w", w.spec, err)
	}

	w.cron.Start()
	w.log.Info().Str("spec", w.spec).Int("top_n", w.topN).Msg("trending worker started")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.tick(ctx)
	}()
	return nil
}

// Stop halts the scheduler and waits for running refreshes, including the
// startup one, to finish.
func (w *TrendingWorker) Stop() {
	<-w.cron.Stop().Done()
	w.wg.Wait()
	w.log.Info().Msg("trending worker stopped")
}

func (w *TrendingWorker) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	categories, err := w.Refresh(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("trending refresh failed")
		return
	}

	w.log.Info().
		Strs("categories", categories).
		Dur("duration_ms", time.Since(start)).
		Msg("trending refresh complete")
}

// Refresh runs one cycle and returns the new trending set.
func (w *TrendingWorker) Refresh(ctx context.Context) ([]string, error) {
	categories, err := w.source.TopCategories(ctx, w.now().Add(-w.lookback), w.topN)
	if err != nil {
		return nil, fmt.Errorf("load top categories: %w", err)
	}

	w.ranking.UpdateTrendingCategories(categories)

	if w.cache != nil {
		if err := w.cache.InvalidateFeeds(ctx); err != nil {
			w.log.Warn().Err(err).Msg("feed cache invalidation failed")
		}
	}
	return categories, nil
}

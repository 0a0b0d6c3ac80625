package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ContentChannel is the Postgres NOTIFY channel fired when posts change.
// The payload is the post's category.
const ContentChannel = "content_changes"

// ContentListener listens for NOTIFY on content_changes and batches feed
// cache invalidation. A burst of edits within one batch window invalidates once.
type ContentListener struct {
	pool  *pgxpool.Pool
	cache FeedInvalidator
	batch time.Duration
	log   zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{} // categories changed since the last flush
}

// NewContentListener creates a listener that flushes every batch window.
func NewContentListener(pool *pgxpool.Pool, cache FeedInvalidator, batch time.Duration, log zerolog.Logger) *ContentListener {
	return &ContentListener{
		pool:    pool,
		cache:   cache,
		batch:   batch,
		log:     log.With().Str("worker", "content-listener").Logger(),
		pending: make(map[string]struct{}),
	}
}

// Start listens until ctx is cancelled, reconnecting on errors.
func (l *ContentListener) Start(ctx context.Context) {
	l.log.Info().Dur("batch_ms", l.batch).Msg("content listener starting")

	for {
		if err := l.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("content listener stopping")
				return
			}
			l.log.Warn().Err(err).Msg("listen error, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				l.log.Info().Msg("content listener stopping")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs on content_changes,
// and collects notifications for the flush loop.
func (l *ContentListener) listenLoop(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ContentChannel); err != nil {
		return err
	}
	l.log.Debug().Str("channel", ContentChannel).Msg("listening")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go l.flushLoop(flushCtx)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.Notify(n.Payload)
	}
}

// Notify marks a category as changed.
func (l *ContentListener) Notify(category string) {
	if category == "" {
		category = "all"
	}
	l.mu.Lock()
	l.pending[category] = struct{}{}
	l.mu.Unlock()
}

func (l *ContentListener) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(l.batch)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.flush(ctx)
		case <-ctx.Done():
			l.flush(context.Background())
			return
		}
	}
}

// flush drains the pending set and invalidates cached feeds once.
func (l *ContentListener) flush(ctx context.Context) int {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return 0
	}
	n := len(l.pending)
	l.pending = make(map[string]struct{})
	l.mu.Unlock()

	if err := l.cache.InvalidateFeeds(ctx); err != nil {
		l.log.Warn().Err(err).Msg("feed cache invalidation failed")
		return 0
	}
	l.log.Debug().Int("categories", n).Msg("feeds invalidated")
	return n
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

// DefaultFeedCacheTTL bounds how stale a cached ranking may be.
const DefaultFeedCacheTTL = 2 * time.Minute

const feedKeyPrefix = "feed:"

// CacheService provides a Redis cache-aside layer for ranked feeds.
type CacheService struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, ttl time.Duration, log zerolog.Logger) *CacheService {
	if ttl <= 0 {
		ttl = DefaultFeedCacheTTL
	}
	disabled := &CacheService{ttl: ttl, log: log}

	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return disabled
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return disabled
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return disabled
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, ttl: ttl, log: log}
}

// NewCacheServiceWithClient wraps an existing client. rdb may be nil.
func NewCacheServiceWithClient(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CacheService {
	if ttl <= 0 {
		ttl = DefaultFeedCacheTTL
	}
	return &CacheService{rdb: rdb, ttl: ttl, log: log}
}

// Client returns the underlying Redis client (for health checks and the shared ledger). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// Enabled reports whether a Redis client is configured.
func (c *CacheService) Enabled() bool {
	return c.rdb != nil
}

// GetFeed retrieves a cached feed. Returns nil, nil if not cached or cache is disabled.
func (c *CacheService) GetFeed(ctx context.Context, category string, limit int) (*model.FeedResponse, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, feedKey(category, limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}

	var feed model.FeedResponse
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &feed, nil
}

// SetFeed stores a ranked feed in cache.
func (c *CacheService) SetFeed(ctx context.Context, category string, limit int, feed *model.FeedResponse) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, feedKey(category, limit), b, c.ttl).Err()
}

// InvalidateFeeds removes every cached feed (called after the trending set changes).
func (c *CacheService) InvalidateFeeds(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, feedKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan feeds: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func feedKey(category string, limit int) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s%s:%d", feedKeyPrefix, category, limit)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitrine-app/vitrine-go/internal/model"
)

const violationLogKey = "violations:log"

// RedisLedger shares the violation window between API instances. The global
// log and per-user sets are sorted by unix milliseconds.
type RedisLedger struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisLedger(rdb *redis.Client, window time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, window: window}
}

// Record adds v to the global log and the user's set, then prunes the global log.
func (l *RedisLedger) Record(ctx context.Context, v model.Violation, cutoff time.Time) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal violation: %w", err)
	}
	score := float64(v.Timestamp.UnixMilli())

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, violationLogKey, redis.Z{Score: score, Member: string(b)})
	pipe.ZAdd(ctx, userViolationsKey(v.UserID), redis.Z{Score: score, Member: v.ID})
	pipe.Expire(ctx, userViolationsKey(v.UserID), l.window)
	pipe.ZRemRangeByScore(ctx, violationLogKey, "-inf", msScore(cutoff))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record violation: %w", err)
	}
	return nil
}

// CountSince prunes the user's set and returns what remains.
func (l *RedisLedger) CountSince(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	key := userViolationsKey(userID)

	pipe := l.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, violationLogKey, "-inf", msScore(cutoff))
	pipe.ZRemRangeByScore(ctx, key, "-inf", msScore(cutoff))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count violations: %w", err)
	}
	return int(card.Val()), nil
}

// Since prunes the global log and decodes every remaining violation.
func (l *RedisLedger) Since(ctx context.Context, cutoff time.Time) ([]model.Violation, error) {
	if err := l.rdb.ZRemRangeByScore(ctx, violationLogKey, "-inf", msScore(cutoff)).Err(); err != nil {
		return nil, fmt.Errorf("prune violations: %w", err)
	}

	members, err := l.rdb.ZRangeByScore(ctx, violationLogKey, &redis.ZRangeBy{
		Min: "(" + msScore(cutoff),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}

	out := make([]model.Violation, 0, len(members))
	for _, m := range members {
		var v model.Violation
		if err := json.Unmarshal([]byte(m), &v); err != nil {
			return nil, fmt.Errorf("decode violation: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func userViolationsKey(userID string) string {
	return fmt.Sprintf("violations:user:%s", userID)
}

func msScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

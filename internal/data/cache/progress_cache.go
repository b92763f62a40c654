// Package cache remembers the last enrollment progress value written per
// (learner, course) so an unchanged percentage skips the database write.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vinnu2910/edutainverse/internal/platform/envutil"
	"github.com/vinnu2910/edutainverse/internal/platform/logger"
)

type ProgressCache interface {
	// LastSynced returns the cached value; ok is false on a miss.
	LastSynced(ctx context.Context, learnerID, courseID uuid.UUID) (pct int, ok bool, err error)
	SetLastSynced(ctx context.Context, learnerID, courseID uuid.UUID, pct int) error
	Forget(ctx context.Context, learnerID, courseID uuid.UUID) error
	Close() error
}

// NewProgressCache returns a Redis-backed cache when REDIS_ADDR is set and a
// no-op cache otherwise. Callers must treat every miss as "unknown".
func NewProgressCache(log *logger.Logger) (ProgressCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := envutil.String("REDIS_ADDR", "", log)
	if addr == "" {
		log.Info("REDIS_ADDR not set; progress cache disabled")
		return NoopProgressCache{}, nil
	}
	return NewRedisProgressCache(log, &goredis.Options{
		Addr:        addr,
		Password:    envutil.String("REDIS_PASSWORD", "", log),
		DB:          envutil.Int("REDIS_DB", 0, log),
		DialTimeout: 5 * time.Second,
	}, envutil.Duration("PROGRESS_CACHE_TTL", 24*time.Hour, log))
}

type NoopProgressCache struct{}

func (NoopProgressCache) LastSynced(context.Context, uuid.UUID, uuid.UUID) (int, bool, error) {
	return 0, false, nil
}
func (NoopProgressCache) SetLastSynced(context.Context, uuid.UUID, uuid.UUID, int) error { return nil }
func (NoopProgressCache) Forget(context.Context, uuid.UUID, uuid.UUID) error             { return nil }
func (NoopProgressCache) Close() error                                                  { return nil }

type redisProgressCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisProgressCache(log *logger.Logger, opts *goredis.Options, ttl time.Duration) (ProgressCache, error) {
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisProgressCache{
		log:    log.With("service", "RedisProgressCache"),
		rdb:    rdb,
		ttl:    ttl,
		prefix: "progress:last_synced",
	}, nil
}

func progressKey(prefix string, learnerID, courseID uuid.UUID) string {
	return strings.Join([]string{prefix, learnerID.String(), courseID.String()}, ":")
}

func (c *redisProgressCache) LastSynced(ctx context.Context, learnerID, courseID uuid.UUID) (int, bool, error) {
	raw, err := c.rdb.Get(ctx, progressKey(c.prefix, learnerID, courseID)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		c.log.Warn("Dropping malformed cached progress", "learner_id", learnerID, "course_id", courseID, "value", raw)
		_ = c.rdb.Del(ctx, progressKey(c.prefix, learnerID, courseID)).Err()
		return 0, false, nil
	}
	return pct, true, nil
}

func (c *redisProgressCache) SetLastSynced(ctx context.Context, learnerID, courseID uuid.UUID, pct int) error {
	return c.rdb.Set(ctx, progressKey(c.prefix, learnerID, courseID), strconv.Itoa(pct), c.ttl).Err()
}

func (c *redisProgressCache) Forget(ctx context.Context, learnerID, courseID uuid.UUID) error {
	return c.rdb.Del(ctx, progressKey(c.prefix, learnerID, courseID)).Err()
}

func (c *redisProgressCache) Close() error {
	return c.rdb.Close()
}

package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanCount = 100

// Cleaner drops rate-limit entries older than maxAge from both backends.
type Cleaner struct {
	redisClient redis.UniversalClient
	memory      *MemoryLimiter
	log         *slog.Logger
	maxAge      time.Duration
	now         func() time.Time
}

// NewCleaner constructs a Cleaner. Either backend may be nil.
func NewCleaner(client redis.UniversalClient, memory *MemoryLimiter, log *slog.Logger, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		redisClient: client,
		memory:      memory,
		log:         log,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// Cleanup runs one pass and returns the number of buckets removed.
func (c *Cleaner) Cleanup(ctx context.Context) int {
	if c.maxAge <= 0 {
		return 0
	}

	cleaned := 0
	if c.memory != nil {
		cleaned += c.memory.Cleanup(c.maxAge)
	}
	if c.redisClient != nil {
		cleaned += c.cleanupRedis(ctx)
	}

	if cleaned > 0 {
		c.log.Info("rate limit buckets cleaned", slog.Int("buckets_removed", cleaned))
	}

	return cleaned
}

func (c *Cleaner) cleanupRedis(ctx context.Context) int {
	cutoff := toScore(c.now().Add(-c.maxAge))
	var cursor uint64
	cleaned := 0

	for {
		if ctx.Err() != nil {
			return cleaned
		}

		keys, nextCursor, err := c.redisClient.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			c.log.Error("rate limit scan failed", slog.Any("error", err))
			return cleaned
		}

		for _, key := range keys {
			pipe := c.redisClient.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", cutoff))
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				c.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if cardCmd.Val() == 0 {
				if err := c.redisClient.Del(ctx, key).Err(); err != nil {
					c.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
					continue
				}
				cleaned++
			}
		}

		if nextCursor == 0 {
			return cleaned
		}
		cursor = nextCursor
	}
}

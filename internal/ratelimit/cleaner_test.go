package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_RemovesStaleBuckets(t *testing.T) {
	client, mr := setupTestRedis(t)
	clock := newClock()
	ctx := context.Background()

	redisLimiter := NewRedisLimiter(client, testLogger())
	redisLimiter.now = clock.Now
	memory := NewMemoryLimiter()
	memory.now = clock.Now

	for _, key := range []string{"user:1", "user:2"} {
		_, err := redisLimiter.Check(ctx, key, 5, time.Hour)
		require.NoError(t, err)
		_, err = memory.Check(ctx, key, 5, time.Hour)
		require.NoError(t, err)
	}

	clock.Advance(2 * time.Hour)
	_, err := redisLimiter.Check(ctx, "user:3", 5, time.Hour)
	require.NoError(t, err)

	cleaner := NewCleaner(client, memory, testLogger(), time.Hour)
	cleaner.now = clock.Now

	removed := cleaner.Cleanup(ctx)

	assert.Equal(t, 4, removed)
	assert.False(t, mr.Exists(keyPrefix+"user:1"))
	assert.False(t, mr.Exists(keyPrefix+"user:2"))
	assert.True(t, mr.Exists(keyPrefix+"user:3"))
	assert.Zero(t, memory.Len())
}

func TestCleaner_DisabledWithoutMaxAge(t *testing.T) {
	cleaner := NewCleaner(nil, NewMemoryLimiter(), testLogger(), 0)

	assert.Zero(t, cleaner.Cleanup(context.Background()))
}

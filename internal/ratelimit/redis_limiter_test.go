package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestRedisLimiter_ResetAtFollowsClockZone(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	riyadh := time.FixedZone("AST", 3*60*60)
	start := time.Date(2026, 3, 1, 15, 0, 0, 0, riyadh)
	limiter.now = func() time.Time { return start }

	_, err := limiter.Check(context.Background(), "chat:9", 1, time.Minute)
	require.NoError(t, err)

	result, err := limiter.Check(context.Background(), "chat:9", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, result.Allowed)
	assert.Equal(t, start.Add(time.Minute), result.ResetAt)
	assert.Equal(t, riyadh, result.ResetAt.Location())
}

func TestRedisLimiter_AllowsWithinLimit(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "chat:1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 5-i-1, result.Remaining)
	}
}

func TestRedisLimiter_BlocksWhenExceeded(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	clk := newClock()
	limiter.now = clk.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Check(ctx, "chat:2", 2, time.Minute)
		require.NoError(t, err)
		if i < 2 {
			assert.True(t, result.Allowed)
		} else {
			assert.False(t, result.Allowed)
			assert.Equal(t, 0, result.Remaining)
			assert.Equal(t, clk.now().Add(time.Minute), result.ResetAt)
			assert.Equal(t, time.Minute, result.RetryAfter(clk.now()))
		}
	}
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	clk := newClock()
	limiter.now = clk.now
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "chat:3", 2, time.Second)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "chat:3", 2, time.Second)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	clk.advance(1100 * time.Millisecond)

	result, err = limiter.Check(ctx, "chat:3", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRedisLimiter_NonPositiveLimitIsUnlimited(t *testing.T) {
	_, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())

	result, err := limiter.Check(context.Background(), "chat:4", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, -1, result.Remaining)
}

func TestRedisLimiter_FailsWhenRedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	mr.Close()

	_, err := limiter.Check(context.Background(), "chat:5", 2, time.Minute)
	assert.Error(t, err)
}

func TestCleaner_RemovesExpiredWindows(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, testLogger())
	clk := newClock()
	limiter.now = clk.now
	ctx := context.Background()

	_, err := limiter.Check(ctx, "chat:old", 5, time.Minute)
	require.NoError(t, err)

	clk.advance(10 * time.Minute)
	_, err = limiter.Check(ctx, "chat:new", 5, time.Minute)
	require.NoError(t, err)

	memory := NewMemoryLimiter(testLogger())
	memory.now = clk.now
	_, err = memory.Check(ctx, "chat:mem", 5, time.Minute)
	require.NoError(t, err)

	cleaner := NewCleaner(client, memory, testLogger(), time.Minute, 5*time.Minute)
	cleaner.now = clk.now

	assert.Equal(t, 1, cleaner.cleanup(ctx))
	assert.False(t, mr.Exists(KeyPrefix+"chat:old"))
	assert.True(t, mr.Exists(KeyPrefix+"chat:new"))

	clk.advance(10 * time.Minute)
	assert.Equal(t, 1, memory.Cleanup(5*time.Minute))
}

package circuitbreaker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}

func newTestBreakerOptions(t *testing.T) Options {
	t.Helper()

	return Options{
		FailureThreshold: 5,
		FailWindow:       10 * time.Second,
		OpenCoolDown:     30 * time.Second,
		HalfOpenLease:    5 * time.Second,
		FailOpen:         true,
		Prefix:           "cb:",
	}
}

func newTestBreaker(t *testing.T, rdb *redis.Client, opts Options) *RedisBreaker {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRedisBreaker(rdb, "redisBreaker", opts, logger)
}

func TestNewRedisBreaker(t *testing.T) {
	rdb, _ := newTestRedisClient(t)
	testBreakerOpts := newTestBreakerOptions(t)

	result := newTestBreaker(t, rdb, testBreakerOpts)

	require.NotNil(t, result, "NewRedisBreaker should not return nil")

	assert.Same(t, rdb, result.rdb, "Expected breaker to keep the passed-in redis client instance")
	assert.Equal(t, "redisBreaker", result.name)
	assert.Equal(t, testBreakerOpts, result.opts)
}

func TestRedisBreaker_keys(t *testing.T) {
	rdb, _ := newTestRedisClient(t)

	breaker := newTestBreaker(t, rdb, newTestBreakerOptions(t))

	k := breaker.keys()

	assert.Equal(t, "cb:redisBreaker:open", k.open)
	assert.Equal(t, "cb:redisBreaker:fails", k.fails)
	assert.Equal(t, "cb:redisBreaker:tripped", k.tripped)
	assert.Equal(t, "cb:redisBreaker:probe", k.probe)
}

func TestRedisBreaker_Allow_Closed(t *testing.T) {
	rdb, _ := newTestRedisClient(t)
	breaker := newTestBreaker(t, rdb, newTestBreakerOptions(t))

	err := breaker.Allow(context.Background())

	require.NoErrorf(t, err, "The Allow method returned an error: %v", err)
}

func TestRedisBreaker_OnFailure_TransitionsToOpen(t *testing.T) {
	rdb, _ := newTestRedisClient(t)

	opts := newTestBreakerOptions(t)
	opts.FailureThreshold = 2

	ctx := context.Background()
	breaker := newTestBreaker(t, rdb, opts)
	k := breaker.keys()

	breaker.OnFailure(ctx)

	fails, err := rdb.Get(ctx, k.fails).Int64()
	require.NoError(t, err)
	require.Equal(t, int64(1), fails)

	state, err := breaker.State(ctx)
	require.NoError(t, err)
	require.Equal(t, Closed, state)

	breaker.OnFailure(ctx)

	state, err = breaker.State(ctx)
	require.NoError(t, err)
	require.Equal(t, Open, state)

	exists, err := rdb.Exists(ctx, k.fails).Result()
	require.NoError(t, err)
	require.Equal(t, int64(0), exists)

	err = breaker.Allow(ctx)
	require.ErrorIs(t, err, ErrCircuitOpen)
}

func TestRedisBreaker_FailWindowExpiresCount(t *testing.T) {
	rdb, mr := newTestRedisClient(t)

	opts := newTestBreakerOptions(t)
	opts.FailureThreshold = 2

	ctx := context.Background()
	breaker := newTestBreaker(t, rdb, opts)

	breaker.OnFailure(ctx)
	mr.FastForward(opts.FailWindow + time.Second)
	breaker.OnFailure(ctx)

	state, err := breaker.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Closed, state)
}

func TestRedisBreaker_HalfOpen_SingleProbe(t *testing.T) {
	rdb, mr := newTestRedisClient(t)

	opts := newTestBreakerOptions(t)
	opts.FailureThreshold = 1

	ctx := context.Background()
	breaker := newTestBreaker(t, rdb, opts)

	breaker.OnFailure(ctx)
	require.ErrorIs(t, breaker.Allow(ctx), ErrCircuitOpen)

	mr.FastForward(opts.OpenCoolDown + time.Second)

	state, err := breaker.State(ctx)
	require.NoError(t, err)
	require.Equal(t, HalfOpen, state)

	require.NoError(t, breaker.Allow(ctx), "first caller gets the probe lease")
	require.ErrorIs(t, breaker.Allow(ctx), ErrCircuitOpen, "second caller is blocked while probing")

	breaker.OnSuccess(ctx)

	state, err = breaker.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Closed, state)
	assert.NoError(t, breaker.Allow(ctx))
}

func TestRedisBreaker_HalfOpen_FailedProbeReopens(t *testing.T) {
	rdb, mr := newTestRedisClient(t)

	opts := newTestBreakerOptions(t)
	opts.FailureThreshold = 3

	ctx := context.Background()
	breaker := newTestBreaker(t, rdb, opts)

	for range 3 {
		breaker.OnFailure(ctx)
	}
	mr.FastForward(opts.OpenCoolDown + time.Second)

	require.NoError(t, breaker.Allow(ctx))
	breaker.OnFailure(ctx)

	state, err := breaker.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, Open, state)
}

func TestRedisBreaker_RedisDown(t *testing.T) {
	rdb, mr := newTestRedisClient(t)
	mr.Close()

	ctx := context.Background()

	opts := newTestBreakerOptions(t)
	failOpen := newTestBreaker(t, rdb, opts)
	assert.NoError(t, failOpen.Allow(ctx))

	opts.FailOpen = false
	failClosed := newTestBreaker(t, rdb, opts)
	assert.ErrorIs(t, failClosed.Allow(ctx), ErrCircuitOpen)
}

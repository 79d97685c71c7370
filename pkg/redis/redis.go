package redis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Used when the matching RedisConfig field is left at zero.
const (
	fallbackTimeout      = 500 * time.Millisecond
	fallbackPoolSize     = 32
	fallbackMinIdleConns = 4
)

// Options maps RedisConfig onto the client options. A single Timeout bounds
// dialing, reads, writes and waiting for a pooled connection: a session
// lookup sits in front of every screen, so a slow store should fail the
// request quickly rather than hold it.
func Options(c core.RedisConfig) *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = fallbackTimeout
	}

	poolSize := c.PoolSize
	if poolSize <= 0 {
		poolSize = fallbackPoolSize
	}

	minIdle := c.MinIdleConns
	if minIdle <= 0 {
		minIdle = fallbackMinIdleConns
	}
	minIdle = min(minIdle, poolSize)

	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		PoolTimeout:  timeout,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
	}
}

// NewClient returns a client for the session store, traced and metered
// through the global otel providers.
func NewClient(c core.RedisConfig, logger *slog.Logger) *redis.Client {
	if logger == nil {
		logger = slog.Default()
	}

	opts := Options(c)

	logger = logger.With(
		slog.String("component", "redis"),
		slog.String("addr", opts.Addr),
		slog.Int("db", opts.DB),
		slog.Int("pool_size", opts.PoolSize),
	)
	logger.Info("connecting to session store")

	rdb := redis.NewClient(opts)

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		logger.Warn("redis tracing unavailable", slog.Any("err", err))
	}

	err = redisotel.InstrumentMetrics(rdb)
	if err != nil {
		logger.Warn("redis metrics unavailable", slog.Any("err", err))
	}

	return rdb
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}

// Key joins parts with ":" the way every key in this service is laid out,
// e.g. Key("session", id, "quote") -> "session:<id>:quote".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

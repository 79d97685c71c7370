package circuitbreaker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type RedisBreaker struct {
	// Redis client used to read and update the circuit state.
	rdb *redis.Client
	// Name of the breaker, used in combination with the prefix when constructing redis keys.
	name string
	// Defines the behaviour and timing characteristics of the breaker.
	opts   Options
	logger *slog.Logger
}

var _ Breaker = (*RedisBreaker)(nil)

func NewRedisBreaker(rdb *redis.Client, name string, opts Options, logger *slog.Logger) *RedisBreaker {
	if opts.FailureThreshold <= 0 {
		opts = DefaultOptions()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RedisBreaker{
		rdb:  rdb,
		name: name,
		opts: opts,
		logger: logger.With(
			slog.String("component", "circuitbreaker"),
			slog.String("breaker", name),
		),
	}
}

type breakerKeys struct {
	open    string
	fails   string
	tripped string
	probe   string
}

func (b *RedisBreaker) keys() breakerKeys {
	prefix := b.opts.Prefix + b.name + ":"
	return breakerKeys{
		open:    prefix + "open",
		fails:   prefix + "fails",
		tripped: prefix + "tripped",
		probe:   prefix + "probe",
	}
}

// State reports where the breaker currently is. A tripped breaker whose open
// cooldown has expired is half-open until a probe succeeds or fails.
func (b *RedisBreaker) State(ctx context.Context) (State, error) {
	k := b.keys()

	n, err := b.rdb.Exists(ctx, k.open).Result()
	if err != nil {
		return Closed, fmt.Errorf("read breaker state: %w", err)
	}
	if n == 1 {
		return Open, nil
	}

	n, err = b.rdb.Exists(ctx, k.tripped).Result()
	if err != nil {
		return Closed, fmt.Errorf("read breaker state: %w", err)
	}
	if n == 1 {
		return HalfOpen, nil
	}

	return Closed, nil
}

// Allow returns nil if the call may proceed, or ErrCircuitOpen if it must be blocked.
// In half-open state only the holder of the probe lease is let through.
func (b *RedisBreaker) Allow(ctx context.Context) error {
	state, err := b.State(ctx)
	if err != nil {
		return b.blind(err)
	}

	switch state {
	case Open:
		return ErrCircuitOpen
	case HalfOpen:
		acquired, err := b.rdb.SetNX(ctx, b.keys().probe, "1", b.opts.HalfOpenLease).Result()
		if err != nil {
			return b.blind(err)
		}
		if !acquired {
			return ErrCircuitOpen
		}
		b.logger.InfoContext(ctx, "breaker half-open, probing")
	}

	return nil
}

func (b *RedisBreaker) blind(err error) error {
	b.logger.Warn("breaker state unavailable", slog.Any("err", err), slog.Bool("fail_open", b.opts.FailOpen))
	if b.opts.FailOpen {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
}

func (b *RedisBreaker) OnSuccess(ctx context.Context) {
	k := b.keys()

	removed, err := b.rdb.Del(ctx, k.fails, k.tripped, k.probe).Result()
	if err != nil {
		b.logger.WarnContext(ctx, "failed to reset breaker", slog.Any("err", err))
		return
	}
	if removed > 1 {
		b.logger.InfoContext(ctx, "breaker closed")
	}
}

func (b *RedisBreaker) OnFailure(ctx context.Context) {
	k := b.keys()

	state, err := b.State(ctx)
	if err == nil && state == HalfOpen {
		// the probe failed; go straight back to open
		b.trip(ctx, k)
		return
	}

	fails, err := b.rdb.Incr(ctx, k.fails).Result()
	if err != nil {
		b.logger.WarnContext(ctx, "failed to record breaker failure", slog.Any("err", err))
		return
	}

	ttl, err := b.rdb.PTTL(ctx, k.fails).Result()
	if err == nil && ttl < 0 {
		_ = b.rdb.PExpire(ctx, k.fails, b.opts.FailWindow).Err()
	}

	if int(fails) >= b.opts.FailureThreshold {
		b.trip(ctx, k)
	}
}

func (b *RedisBreaker) trip(ctx context.Context, k breakerKeys) {
	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, k.open, "1", b.opts.OpenCoolDown)
	pipe.Set(ctx, k.tripped, "1", 0)
	pipe.Del(ctx, k.fails, k.probe)

	_, err := pipe.Exec(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "failed to open breaker", slog.Any("err", err))
		return
	}

	b.logger.WarnContext(ctx, "breaker opened", slog.Duration("cooldown", b.opts.OpenCoolDown))
}

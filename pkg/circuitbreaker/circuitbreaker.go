package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/core"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

const (
	defaultFailureThreshold = 5
	defaultFailWindow       = 10
	defaultOpenCooldown     = 30
	defaultHalfOpenLease    = 5
	defaultFailOpen         = true
	defaultPrefix           = "cb:"
)

type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

var stateName = map[State]string{
	Closed:   "CLOSED",
	HalfOpen: "HALF_OPEN",
	Open:     "OPEN",
}

func (s State) String() string {
	return stateName[s]
}

type Breaker interface {
	Allow(ctx context.Context) error
	OnSuccess(ctx context.Context)
	OnFailure(ctx context.Context)
}

type Options struct {
	// Number of failures before entering open state.
	FailureThreshold int
	// Time between failures to count as an outage.
	FailWindow time.Duration
	// How long to stay in open state before triggering half-open state.
	OpenCoolDown time.Duration
	// Time lease to allow only one instance at a time to probe whether the circuit can be closed.
	HalfOpenLease time.Duration
	// If Redis is unreachable and the state is unknown, this determines the behavior of Allow.
	// TRUE: allows requests to proceed without the breaker participating
	// FALSE: blocks requests
	FailOpen bool
	// Key prefix to prevent name clashing.
	Prefix string
}

func DefaultOptions() Options {
	return Options{
		FailureThreshold: defaultFailureThreshold,
		FailWindow:       defaultFailWindow * time.Second,
		OpenCoolDown:     defaultOpenCooldown * time.Second,
		HalfOpenLease:    defaultHalfOpenLease * time.Second,
		FailOpen:         defaultFailOpen,
		Prefix:           defaultPrefix,
	}
}

// OptionsFromConfig fills the breaker options from BREAKER_* settings,
// falling back to the defaults for anything left at zero.
func OptionsFromConfig(cfg core.BreakerConfig) Options {
	opts := DefaultOptions()
	if cfg.FailureThreshold > 0 {
		opts.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.FailWindow > 0 {
		opts.FailWindow = cfg.FailWindow
	}
	if cfg.OpenCoolDown > 0 {
		opts.OpenCoolDown = cfg.OpenCoolDown
	}
	if cfg.Prefix != "" {
		opts.Prefix = cfg.Prefix
	}
	return opts
}

// Do runs fn through the breaker: it is skipped while the circuit is open and
// its outcome is recorded otherwise.
func Do(ctx context.Context, b Breaker, fn func(ctx context.Context) error) error {
	err := b.Allow(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx)
	if err != nil {
		b.OnFailure(ctx)
		return err
	}

	b.OnSuccess(ctx)
	return nil
}

package payment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MockOptions struct {
	// Simulated processing time.
	Delay time.Duration
	// When set, every charge is declined with this reason.
	FailWith string
	Logger   *slog.Logger
	Now      func() time.Time
}

// MockGateway stands in for the mobile-money provider. It waits Delay and
// then approves the charge, unless FailWith is set.
type MockGateway struct {
	delay    time.Duration
	failWith string
	logger   *slog.Logger
	now      func() time.Time
}

var _ Gateway = (*MockGateway)(nil)

func NewMockGateway(opts MockOptions) *MockGateway {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &MockGateway{
		delay:    opts.Delay,
		failWith: opts.FailWith,
		logger:   logger.With(slog.String("component", "mock-gateway")),
		now:      now,
	}
}

func (g *MockGateway) Initiate(ctx context.Context, charge Charge) (Result, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}
	}

	if g.failWith != "" {
		g.logger.InfoContext(ctx, "charge declined",
			slog.String("reference", charge.Reference),
			slog.String("reason", g.failWith),
		)
		return Result{
			Status:      StatusFailure,
			Reason:      g.failWith,
			CompletedAt: g.now().UTC(),
		}, nil
	}

	res := Result{
		Status:        StatusSuccess,
		TransactionID: "MP" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]),
		CompletedAt:   g.now().UTC(),
	}

	g.logger.InfoContext(ctx, "charge approved",
		slog.String("reference", charge.Reference),
		slog.String("transaction_id", res.TransactionID),
	)

	return res, nil
}

package payment

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/cicgroup/policy-quote-service/pkg/session"
	"github.com/redis/go-redis/v9"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}

func newTestLedger(t *testing.T) Ledger {
	t.Helper()

	rdb, _ := newTestRedis(t)
	return NewSessionLedger(session.NewStore(rdb, session.Options{
		IdleTimeout: 5 * time.Minute,
		Logger:      discard,
	}))
}

func testQuote(ref string) quote.Quote {
	return quote.Quote{
		Reference: ref,
		Request: quote.Request{
			FirstName:     "Brian",
			LastName:      "Otieno",
			Age:           22,
			InsuranceType: quote.Auto,
			CoverageLevel: quote.Basic,
		},
		Amount: quote.Major(7000, quote.KES),
		Table:  "kes",
	}
}

// countingGateway records every charge it sees and blocks each one until
// release is closed, if set.
type countingGateway struct {
	calls   atomic.Int32
	release chan struct{}
	result  Result
	err     error

	mu      sync.Mutex
	charges []Charge
}

func (g *countingGateway) Initiate(ctx context.Context, charge Charge) (Result, error) {
	g.calls.Add(1)

	g.mu.Lock()
	g.charges = append(g.charges, charge)
	g.mu.Unlock()

	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if g.err != nil {
		return Result{}, g.err
	}
	if g.result.Status == "" {
		return Result{Status: StatusSuccess, TransactionID: "TX1"}, nil
	}
	return g.result, nil
}

package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/cicgroup/policy-quote-service/pkg/circuitbreaker"
)

var errDeclined = errors.New("charge declined")

// BreakerGateway guards a Gateway with a circuit breaker. Unreachable gateways
// and declined charges both count as failures.
type BreakerGateway struct {
	next    Gateway
	breaker circuitbreaker.Breaker
}

var _ Gateway = (*BreakerGateway)(nil)

func NewBreakerGateway(next Gateway, breaker circuitbreaker.Breaker) *BreakerGateway {
	return &BreakerGateway{next: next, breaker: breaker}
}

func (g *BreakerGateway) Initiate(ctx context.Context, charge Charge) (Result, error) {
	var res Result

	err := circuitbreaker.Do(ctx, g.breaker, func(ctx context.Context) error {
		r, err := g.next.Initiate(ctx, charge)
		if err != nil {
			return err
		}
		res = r
		if r.Failed() {
			return errDeclined
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errDeclined):
		return res, nil
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return Result{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	default:
		return Result{}, err
	}
}

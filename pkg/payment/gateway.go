// Package payment charges a quote through a mobile-money gateway and keeps
// the receipt for the session that paid it.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/quote"
)

var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Charge is a single request to collect Amount from the holder of Phone.
// Reference is the quote reference and identifies the charge.
type Charge struct {
	Reference string       `json:"reference"`
	Amount    quote.Amount `json:"amount"`
	Phone     string       `json:"phone"`
}

type Result struct {
	Status        Status    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
}

func (r Result) Failed() bool {
	return r.Status != StatusSuccess
}

// Gateway initiates a charge. A returned error means the gateway could not be
// reached; a declined charge is a Result with StatusFailure.
type Gateway interface {
	Initiate(ctx context.Context, charge Charge) (Result, error)
}

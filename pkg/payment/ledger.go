package payment

import (
	"context"
	"errors"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/session"
)

const slotReceipt = "receipt"

// Ledger remembers what a session has already paid for.
type Ledger interface {
	LoadReceipt(ctx context.Context, sessionID string) (Receipt, bool, error)
	SaveReceipt(ctx context.Context, sessionID string, r Receipt) error
	// Lock reports false when a charge for reference is already running.
	Lock(ctx context.Context, sessionID, reference string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, sessionID, reference string) error
}

type sessionLedger struct {
	store *session.Store
}

var _ Ledger = (*sessionLedger)(nil)

// NewSessionLedger keeps receipts in the session, so they expire with it.
func NewSessionLedger(store *session.Store) Ledger {
	return &sessionLedger{store: store}
}

func lockSlot(reference string) string {
	return "payment-lock:" + reference
}

func (l *sessionLedger) LoadReceipt(ctx context.Context, sessionID string) (Receipt, bool, error) {
	var r Receipt
	err := l.store.Load(ctx, sessionID, slotReceipt, &r)
	if errors.Is(err, session.ErrNotFound) {
		return Receipt{}, false, nil
	}
	if err != nil {
		return Receipt{}, false, err
	}
	return r, true, nil
}

func (l *sessionLedger) SaveReceipt(ctx context.Context, sessionID string, r Receipt) error {
	return l.store.Save(ctx, sessionID, slotReceipt, r)
}

func (l *sessionLedger) Lock(ctx context.Context, sessionID, reference string, ttl time.Duration) (bool, error) {
	return l.store.Claim(ctx, sessionID, lockSlot(reference), ttl)
}

func (l *sessionLedger) Unlock(ctx context.Context, sessionID, reference string) error {
	return l.store.Delete(ctx, sessionID, lockSlot(reference))
}

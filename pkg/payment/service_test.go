package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, gw Gateway) *Service {
	t.Helper()

	svc, err := NewService(Options{
		Gateway: gw,
		Ledger:  newTestLedger(t),
		Timeout: time.Second,
		Logger:  discard,
	})
	require.NoError(t, err)
	return svc
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(Options{Ledger: newTestLedger(t)})
	assert.Error(t, err)

	_, err = NewService(Options{Gateway: &countingGateway{}})
	assert.Error(t, err)
}

func TestPay_Success(t *testing.T) {
	gw := &countingGateway{}
	svc := newTestService(t, gw)
	ctx := context.Background()

	receipt, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "0712 345 678")
	require.NoError(t, err)

	assert.Regexp(t, `^RCT-[0-9A-F]{12}$`, receipt.Number)
	assert.Equal(t, "q1", receipt.Quote.Reference)
	assert.Equal(t, "+254712345678", receipt.Details.Phone)
	assert.Equal(t, MethodMobileMoney, receipt.Details.Method)
	assert.Equal(t, "TX1", receipt.Result.TransactionID)

	require.Len(t, gw.charges, 1)
	assert.Equal(t, "+254712345678", gw.charges[0].Phone)
	assert.Equal(t, int64(700000), gw.charges[0].Amount.Minor)

	stored, ok, err := svc.Receipt(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, receipt.Number, stored.Number)
}

func TestPay_InvalidPhoneNeverCharges(t *testing.T) {
	gw := &countingGateway{}
	svc := newTestService(t, gw)

	_, err := svc.Pay(context.Background(), "sess-1", testQuote("q1"), "0812345678")

	var phoneErr *phone.ValidationError
	require.ErrorAs(t, err, &phoneErr)
	assert.Equal(t, phone.ReasonCarrier, phoneErr.Reason)
	assert.Zero(t, gw.calls.Load())
}

func TestPay_ResubmissionReturnsFirstReceipt(t *testing.T) {
	gw := &countingGateway{}
	svc := newTestService(t, gw)
	ctx := context.Background()

	first, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	require.NoError(t, err)

	second, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "+254712345678")
	require.NoError(t, err)

	assert.Equal(t, first.Number, second.Number)
	assert.EqualValues(t, 1, gw.calls.Load())
}

func TestPay_ConcurrentSubmissionsChargeOnce(t *testing.T) {
	gw := &countingGateway{release: make(chan struct{})}
	svc := newTestService(t, gw)
	ctx := context.Background()

	const submissions = 5

	var wg sync.WaitGroup
	receipts := make([]Receipt, submissions)
	errs := make([]error, submissions)

	for i := range submissions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			receipts[i], errs[i] = svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
		}()
	}

	require.Eventually(t, func() bool { return gw.calls.Load() >= 1 }, time.Second, time.Millisecond)
	close(gw.release)
	wg.Wait()

	assert.EqualValues(t, 1, gw.calls.Load())
	for i := range submissions {
		require.NoError(t, errs[i])
		assert.Equal(t, receipts[0].Number, receipts[i].Number)
	}
}

func TestPay_NewQuoteIsChargedSeparately(t *testing.T) {
	gw := &countingGateway{}
	svc := newTestService(t, gw)
	ctx := context.Background()

	first, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	require.NoError(t, err)

	second, err := svc.Pay(ctx, "sess-1", testQuote("q2"), "0712345678")
	require.NoError(t, err)

	assert.NotEqual(t, first.Number, second.Number)
	assert.EqualValues(t, 2, gw.calls.Load())
}

func TestPay_DeclinedCanBeRetried(t *testing.T) {
	gw := &countingGateway{result: Result{Status: StatusFailure, Reason: "insufficient funds"}}
	svc := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "insufficient funds", declined.Reason)
	assert.Equal(t, "payment declined: insufficient funds", err.Error())

	_, ok, err := svc.Receipt(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok)

	gw.result = Result{}
	_, err = svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gw.calls.Load())
}

func TestPay_LockedElsewhere(t *testing.T) {
	gw := &countingGateway{}
	ledger := newTestLedger(t)
	svc, err := NewService(Options{Gateway: gw, Ledger: ledger, Logger: discard})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := ledger.Lock(ctx, "sess-1", "q1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Zero(t, gw.calls.Load())
}

// pausingLedger holds the first receipt lookup of one service until resume
// is closed, so another service can finish the same charge in between.
type pausingLedger struct {
	Ledger
	lookups atomic.Int32
	looked  chan struct{}
	resume  chan struct{}
}

func (l *pausingLedger) LoadReceipt(ctx context.Context, sessionID string) (Receipt, bool, error) {
	r, ok, err := l.Ledger.LoadReceipt(ctx, sessionID)
	if l.lookups.Add(1) == 1 {
		close(l.looked)
		<-l.resume
	}
	return r, ok, err
}

func TestPay_TwoInstancesChargeOnce(t *testing.T) {
	gw := &countingGateway{}
	shared := newTestLedger(t)
	ctx := context.Background()

	first, err := NewService(Options{Gateway: gw, Ledger: shared, Logger: discard})
	require.NoError(t, err)

	paused := &pausingLedger{Ledger: shared, looked: make(chan struct{}), resume: make(chan struct{})}
	second, err := NewService(Options{Gateway: gw, Ledger: paused, Logger: discard})
	require.NoError(t, err)

	type outcome struct {
		receipt Receipt
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := second.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
		done <- outcome{r, err}
	}()

	<-paused.looked

	receipt, err := first.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	require.NoError(t, err)

	close(paused.resume)
	out := <-done

	require.NoError(t, out.err)
	assert.Equal(t, receipt.Number, out.receipt.Number)
	assert.EqualValues(t, 1, gw.calls.Load())
}

func TestPay_GatewayErrorReleasesLock(t *testing.T) {
	boom := errors.New("gateway down")
	gw := &countingGateway{err: boom}
	svc := newTestService(t, gw)
	ctx := context.Background()

	_, err := svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	assert.ErrorIs(t, err, boom)

	gw.err = nil
	_, err = svc.Pay(ctx, "sess-1", testQuote("q1"), "0712345678")
	assert.NoError(t, err)
}

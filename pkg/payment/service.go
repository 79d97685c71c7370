package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/cicgroup/policy-quote-service/pkg/phone"
	"github.com/cicgroup/policy-quote-service/pkg/quote"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const instrumentationName = "github.com/cicgroup/policy-quote-service/pkg/payment"

const defaultTimeout = 10 * time.Second

type Options struct {
	Gateway Gateway
	Ledger  Ledger
	// Upper bound for a single gateway call. Also bounds how long a
	// charge lock is held if the process dies mid-charge.
	Timeout time.Duration
	Otel    core.OtelService
	Logger  *slog.Logger
	// Overrides for tests.
	Now              func() time.Time
	NewReceiptNumber func() string
}

// Service charges quotes. A quote is charged at most once per session no
// matter how often payment is submitted.
type Service struct {
	gateway          Gateway
	ledger           Ledger
	timeout          time.Duration
	group            singleflight.Group
	tracer           trace.Tracer
	payments         metric.Int64Counter
	logger           *slog.Logger
	now              func() time.Time
	newReceiptNumber func() string
}

func NewService(opts Options) (*Service, error) {
	if opts.Gateway == nil {
		return nil, errors.New("payment: gateway is required")
	}
	if opts.Ledger == nil {
		return nil, errors.New("payment: ledger is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	otel := opts.Otel
	if otel == nil {
		otel = core.NewNoopOtelService()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	payments, err := otel.Meter(instrumentationName).Int64Counter(
		"payments.processed",
		metric.WithDescription("Payment attempts that reached the gateway"),
	)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	newReceiptNumber := opts.NewReceiptNumber
	if newReceiptNumber == nil {
		newReceiptNumber = defaultReceiptNumber
	}

	return &Service{
		gateway:          opts.Gateway,
		ledger:           opts.Ledger,
		timeout:          timeout,
		tracer:           otel.Tracer(instrumentationName),
		payments:         payments,
		logger:           logger.With(slog.String("component", "payment")),
		now:              now,
		newReceiptNumber: newReceiptNumber,
	}, nil
}

func defaultReceiptNumber() string {
	return "RCT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// Pay validates rawPhone and charges q. Resubmitting the same quote returns
// the receipt of the first successful charge.
func (s *Service) Pay(ctx context.Context, sessionID string, q quote.Quote, rawPhone string) (Receipt, error) {
	number, err := phone.Normalize(rawPhone)
	if err != nil {
		return Receipt{}, err
	}

	key := sessionID + "/" + q.Reference
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.pay(ctx, sessionID, q, number)
	})
	if shared {
		s.logger.DebugContext(ctx, "duplicate payment submission joined", slog.String("reference", q.Reference))
	}
	if err != nil {
		return Receipt{}, err
	}

	return v.(Receipt), nil
}

// Receipt returns the session's latest receipt.
func (s *Service) Receipt(ctx context.Context, sessionID string) (Receipt, bool, error) {
	return s.ledger.LoadReceipt(ctx, sessionID)
}

func (s *Service) pay(ctx context.Context, sessionID string, q quote.Quote, number string) (Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Pay", trace.WithAttributes(
		attribute.String("quote.reference", q.Reference),
		attribute.String("payment.method", MethodMobileMoney),
	))
	defer span.End()

	existing, ok, err := s.ledger.LoadReceipt(ctx, sessionID)
	if err != nil {
		return Receipt{}, fmt.Errorf("load receipt: %w", err)
	}
	if ok && existing.Quote.Reference == q.Reference {
		span.SetAttributes(attribute.Bool("payment.replayed", true))
		return existing, nil
	}

	locked, err := s.ledger.Lock(ctx, sessionID, q.Reference, s.timeout)
	if err != nil {
		return Receipt{}, fmt.Errorf("lock payment: %w", err)
	}
	if !locked {
		return Receipt{}, ErrInProgress
	}
	defer func() {
		unlockErr := s.ledger.Unlock(context.WithoutCancel(ctx), sessionID, q.Reference)
		if unlockErr != nil {
			s.logger.WarnContext(ctx, "failed to release payment lock", slog.Any("err", unlockErr))
		}
	}()

	// another instance may have finished this charge between the first
	// lookup and taking the lock
	existing, ok, err = s.ledger.LoadReceipt(ctx, sessionID)
	if err != nil {
		return Receipt{}, fmt.Errorf("load receipt: %w", err)
	}
	if ok && existing.Quote.Reference == q.Reference {
		span.SetAttributes(attribute.Bool("payment.replayed", true))
		return existing, nil
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.gateway.Initiate(gatewayCtx, Charge{
		Reference: q.Reference,
		Amount:    q.Amount,
		Phone:     number,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway error")
		s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "error")))
		s.logger.ErrorContext(ctx, "payment gateway error",
			slog.String("reference", q.Reference),
			slog.Any("err", err),
		)
		return Receipt{}, err
	}

	s.payments.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(res.Status))))

	if res.Failed() {
		span.SetStatus(codes.Error, "declined")
		s.logger.InfoContext(ctx, "payment declined",
			slog.String("reference", q.Reference),
			slog.String("reason", res.Reason),
		)
		return Receipt{}, &DeclinedError{Reference: q.Reference, Reason: res.Reason}
	}

	receipt := Receipt{
		Number:  s.newReceiptNumber(),
		Quote:   q,
		Details: Details{Phone: number, Method: MethodMobileMoney},
		Result:  res,
		PaidAt:  s.now().UTC(),
	}

	err = s.ledger.SaveReceipt(ctx, sessionID, receipt)
	if err != nil {
		// the charge went through; the receipt is still returned to the caller
		s.logger.ErrorContext(ctx, "failed to store receipt",
			slog.String("receipt", receipt.Number),
			slog.Any("err", err),
		)
	}

	s.logger.InfoContext(ctx, "payment completed",
		slog.String("reference", q.Reference),
		slog.String("receipt", receipt.Number),
		slog.String("phone", phone.Mask(number)),
		slog.String("amount", q.Amount.String()),
	)

	return receipt, nil
}

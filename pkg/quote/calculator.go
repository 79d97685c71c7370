package quote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cicgroup/policy-quote-service/pkg/core"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/cicgroup/policy-quote-service/pkg/quote"

type Options struct {
	// Defaults to KESTable.
	Table RateTable
	// Defaults to CurrentAgeBounds.
	Bounds AgeBounds
	Otel   core.OtelService
	Logger *slog.Logger
	// Overrides for tests.
	Now          func() time.Time
	NewReference func() string
}

// Calculator turns a submitted form into a priced quote.
type Calculator struct {
	table        RateTable
	bounds       AgeBounds
	tracer       trace.Tracer
	calculated   metric.Int64Counter
	rejected     metric.Int64Counter
	logger       *slog.Logger
	now          func() time.Time
	newReference func() string
}

func NewCalculator(opts Options) (*Calculator, error) {
	table := opts.Table
	if table == nil {
		table = KESTable
	}

	bounds := opts.Bounds
	if bounds == (AgeBounds{}) {
		bounds = CurrentAgeBounds
	}
	if bounds.Min > bounds.Max {
		return nil, errors.New("age bounds are inverted")
	}

	otel := opts.Otel
	if otel == nil {
		otel = core.NewNoopOtelService()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter(instrumentationName)
	calculated, err := meter.Int64Counter(
		"quotes.calculated",
		metric.WithDescription("Quotes priced successfully"),
	)
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter(
		"quotes.rejected",
		metric.WithDescription("Quote submissions rejected by validation"),
	)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	newReference := opts.NewReference
	if newReference == nil {
		newReference = uuid.NewString
	}

	return &Calculator{
		table:        table,
		bounds:       bounds,
		tracer:       otel.Tracer(instrumentationName),
		calculated:   calculated,
		rejected:     rejected,
		logger:       logger.With(slog.String("component", "quote"), slog.String("rate_table", table.Name())),
		now:          now,
		newReference: newReference,
	}, nil
}

func (c *Calculator) Bounds() AgeBounds {
	return c.bounds
}

func (c *Calculator) Table() RateTable {
	return c.table
}

// Calculate validates the form and prices it. Pricing is never attempted for
// a form that fails validation.
func (c *Calculator) Calculate(ctx context.Context, form Form) (Quote, error) {
	ctx, span := c.tracer.Start(ctx, "quote.Calculate")
	defer span.End()

	req, err := Validate(form, c.bounds)
	if err != nil {
		var fieldErr *FieldValidationError
		if errors.As(err, &fieldErr) {
			c.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("field", fieldErr.Field.String())))
			span.SetAttributes(attribute.String("quote.rejected_field", fieldErr.Field.String()))
		}
		c.logger.DebugContext(ctx, "quote form rejected", slog.Any("err", err))
		return Quote{}, err
	}

	span.SetAttributes(
		attribute.String("quote.insurance_type", string(req.InsuranceType)),
		attribute.String("quote.coverage_level", string(req.CoverageLevel)),
		attribute.Int("quote.age", req.Age),
	)

	amount, err := Price(c.table, req.InsuranceType, req.Age, req.CoverageLevel)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pricing failed")
		c.logger.ErrorContext(ctx, "quote pricing failed", slog.Any("err", err))
		return Quote{}, err
	}

	q := Quote{
		Reference:    c.newReference(),
		Request:      req,
		Amount:       amount,
		Table:        c.table.Name(),
		CalculatedAt: c.now().UTC(),
	}

	c.calculated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("insurance_type", string(req.InsuranceType)),
		attribute.String("coverage_level", string(req.CoverageLevel)),
	))

	c.logger.InfoContext(ctx, "quote calculated",
		slog.String("reference", q.Reference),
		slog.String("insurance_type", string(req.InsuranceType)),
		slog.String("coverage_level", string(req.CoverageLevel)),
		slog.String("amount", amount.String()),
	)

	return q, nil
}

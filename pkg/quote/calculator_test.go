package quote

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyTable struct {
	calls int
	inner RateTable
}

func (s *spyTable) Name() string { return "spy" }

func (s *spyTable) Price(it InsuranceType, age int, cl CoverageLevel) (Amount, error) {
	s.calls++
	return s.inner.Price(it, age, cl)
}

func newTestCalculator(t *testing.T, table RateTable, bounds AgeBounds) *Calculator {
	t.Helper()

	calc, err := NewCalculator(Options{
		Table:        table,
		Bounds:       bounds,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:          func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
		NewReference: func() string { return "ref-1" },
	})
	require.NoError(t, err)

	return calc
}

func TestNewCalculator_Defaults(t *testing.T) {
	calc, err := NewCalculator(Options{})
	require.NoError(t, err)

	assert.Equal(t, CurrentAgeBounds, calc.Bounds())
	assert.Equal(t, "kes", calc.Table().Name())
}

func TestNewCalculator_InvertedBounds(t *testing.T) {
	_, err := NewCalculator(Options{Bounds: AgeBounds{Min: 50, Max: 10}})

	assert.Error(t, err)
}

func TestCalculate_PricesValidForm(t *testing.T) {
	calc := newTestCalculator(t, KESTable, CurrentAgeBounds)

	form := NewForm()
	form.Set(FieldFirstName, "Achieng")
	form.Set(FieldLastName, "Otieno")
	form.Set(FieldAge, "20")

	q, err := calc.Calculate(context.Background(), form)
	require.NoError(t, err)

	assert.Equal(t, "ref-1", q.Reference)
	assert.Equal(t, "kes", q.Table)
	assert.Equal(t, Major(7000, KES), q.Amount)
	assert.Equal(t, 20, q.Request.Age)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), q.CalculatedAt)
}

func TestCalculate_RejectedAgeNeverReachesPricing(t *testing.T) {
	spy := &spyTable{inner: KESTable}
	calc := newTestCalculator(t, spy, LegacyAgeBounds)

	form := validForm()
	form.Age = "16"

	_, err := calc.Calculate(context.Background(), form)

	var fieldErr *FieldValidationError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, FieldAge, fieldErr.Field)
	assert.Zero(t, spy.calls)
}

func TestCalculate_ValidFormIsPricedOnce(t *testing.T) {
	spy := &spyTable{inner: LegacyMultiplierTable}
	calc := newTestCalculator(t, spy, CurrentAgeBounds)

	q, err := calc.Calculate(context.Background(), validForm())
	require.NoError(t, err)

	assert.Equal(t, 1, spy.calls)
	assert.Equal(t, "$150.00", q.Amount.String())
	assert.Equal(t, "spy", q.Table)
}

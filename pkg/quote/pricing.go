package quote

import (
	"fmt"

	"github.com/cicgroup/policy-quote-service/pkg/choice"
)

// YoungDriverAge is the age below which the young-driver loading applies.
const YoungDriverAge = 25

type RateTable interface {
	Name() string
	Price(insuranceType InsuranceType, age int, coverage CoverageLevel) (Amount, error)
}

// FixedTable prices in Kenyan shillings by adding fixed surcharges to a base.
// The young-driver surcharge only applies to auto insurance.
type FixedTable struct {
	BaseAuto    Amount
	BaseHealth  Amount
	YoungDriver Amount
	Premium     Amount
}

var KESTable = FixedTable{
	BaseAuto:    Major(5000, KES),
	BaseHealth:  Major(8000, KES),
	YoungDriver: Major(2000, KES),
	Premium:     Major(3500, KES),
}

func (FixedTable) Name() string {
	return "kes"
}

func (t FixedTable) Price(insuranceType InsuranceType, age int, coverage CoverageLevel) (Amount, error) {
	var base Amount
	switch insuranceType {
	case Auto:
		base = t.BaseAuto
	case Health:
		base = t.BaseHealth
	default:
		return Amount{}, &PricingError{InsuranceType: insuranceType, Err: ErrInvalidInsuranceType}
	}

	zero := Amount{Currency: base.Currency}
	young := choice.Ternary(insuranceType == Auto && age < YoungDriverAge, t.YoungDriver, zero)
	premium := choice.Ternary(coverage == Premium, t.Premium, zero)

	return base.Add(young).Add(premium), nil
}

// MultiplierTable is the earlier scheme: a base rate scaled by percentage
// multipliers. Its age multiplier applies to every insurance type.
type MultiplierTable struct {
	BaseAuto       Amount
	BaseHealth     Amount
	YoungPercent   int64
	PremiumPercent int64
}

var LegacyMultiplierTable = MultiplierTable{
	BaseAuto:       Major(100, USD),
	BaseHealth:     Major(150, USD),
	YoungPercent:   150,
	PremiumPercent: 150,
}

func (MultiplierTable) Name() string {
	return "multiplier"
}

func (t MultiplierTable) Price(insuranceType InsuranceType, age int, coverage CoverageLevel) (Amount, error) {
	var base Amount
	switch insuranceType {
	case Auto:
		base = t.BaseAuto
	case Health:
		base = t.BaseHealth
	default:
		return Amount{}, &PricingError{InsuranceType: insuranceType, Err: ErrInvalidInsuranceType}
	}

	amount := base.Scale(choice.Ternary(age < YoungDriverAge, t.YoungPercent, 100))
	amount = amount.Scale(choice.Ternary(coverage == Premium, t.PremiumPercent, 100))

	return amount, nil
}

func TableByName(name string) (RateTable, error) {
	switch name {
	case "", KESTable.Name():
		return KESTable, nil
	case LegacyMultiplierTable.Name():
		return LegacyMultiplierTable, nil
	default:
		return nil, fmt.Errorf("unknown rate table %q", name)
	}
}

// Price is a pure function of its inputs.
func Price(table RateTable, insuranceType InsuranceType, age int, coverage CoverageLevel) (Amount, error) {
	return table.Price(insuranceType, age, coverage)
}

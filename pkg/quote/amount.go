package quote

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Currency string

const (
	KES Currency = "KES"
	USD Currency = "USD"
)

// Amount is a money value in minor units (cents).
type Amount struct {
	Minor    int64    `json:"minor"`
	Currency Currency `json:"currency"`
}

func Major(units int64, c Currency) Amount {
	return Amount{Minor: units * 100, Currency: c}
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Minor: a.Minor + b.Minor, Currency: a.Currency}
}

// Scale multiplies by percent/100, e.g. Scale(150) is a 1.5x multiplier.
func (a Amount) Scale(percent int64) Amount {
	return Amount{Minor: a.Minor * percent / 100, Currency: a.Currency}
}

func (a Amount) IsZero() bool {
	return a.Minor == 0
}

var printer = message.NewPrinter(language.English)

// String renders the amount for display: "KES 7,000.00", "$225.00".
func (a Amount) String() string {
	units := printer.Sprint(a.Minor / 100)
	cents := a.Minor % 100
	if cents < 0 {
		cents = -cents
	}

	switch a.Currency {
	case USD:
		return fmt.Sprintf("$%s.%02d", units, cents)
	default:
		return fmt.Sprintf("%s %s.%02d", a.Currency, units, cents)
	}
}

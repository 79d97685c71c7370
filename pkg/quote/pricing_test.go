package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKESTable(t *testing.T) {
	tests := []struct {
		name          string
		insuranceType InsuranceType
		age           int
		coverage      CoverageLevel
		expected      Amount
	}{
		{
			name:          "young driver, basic auto",
			insuranceType: Auto,
			age:           20,
			coverage:      Basic,
			expected:      KESTable.BaseAuto.Add(KESTable.YoungDriver),
		},
		{
			name:          "adult, basic auto",
			insuranceType: Auto,
			age:           25,
			coverage:      Basic,
			expected:      KESTable.BaseAuto,
		},
		{
			name:          "young driver, premium auto",
			insuranceType: Auto,
			age:           24,
			coverage:      Premium,
			expected:      Major(10500, KES),
		},
		{
			name:          "health premium has no young driver loading",
			insuranceType: Health,
			age:           40,
			coverage:      Premium,
			expected:      KESTable.BaseHealth.Add(KESTable.Premium),
		},
		{
			name:          "young health basic",
			insuranceType: Health,
			age:           19,
			coverage:      Basic,
			expected:      KESTable.BaseHealth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Price(KESTable, tt.insuranceType, tt.age, tt.coverage)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLegacyMultiplierTable(t *testing.T) {
	tests := []struct {
		name          string
		insuranceType InsuranceType
		age           int
		coverage      CoverageLevel
		expected      string
	}{
		{"auto basic adult", Auto, 30, Basic, "$100.00"},
		{"auto basic young", Auto, 20, Basic, "$150.00"},
		{"auto premium young", Auto, 20, Premium, "$225.00"},
		{"health premium adult", Health, 40, Premium, "$225.00"},
		{"health basic young", Health, 18, Basic, "$225.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Price(LegacyMultiplierTable, tt.insuranceType, tt.age, tt.coverage)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, result.String())
		})
	}
}

func TestPrice_InvalidInsuranceType(t *testing.T) {
	for _, table := range []RateTable{KESTable, LegacyMultiplierTable} {
		_, err := Price(table, InsuranceType("life"), 30, Basic)

		var pricingErr *PricingError
		require.ErrorAs(t, err, &pricingErr)
		assert.ErrorIs(t, err, ErrInvalidInsuranceType)
		assert.Equal(t, InsuranceType("life"), pricingErr.InsuranceType)
		assert.Contains(t, err.Error(), "invalid insurance type")
	}
}

func TestPrice_IsDeterministic(t *testing.T) {
	for _, it := range InsuranceTypes {
		for _, cl := range CoverageLevels {
			for age := CurrentAgeBounds.Min; age <= CurrentAgeBounds.Max; age++ {
				first, err := Price(KESTable, it, age, cl)
				require.NoError(t, err)

				second, err := Price(KESTable, it, age, cl)
				require.NoError(t, err)

				require.Equal(t, first, second, "%s/%d/%s", it, age, cl)
			}
		}
	}
}

func TestTableByName(t *testing.T) {
	table, err := TableByName("kes")
	require.NoError(t, err)
	assert.Equal(t, "kes", table.Name())

	table, err = TableByName("")
	require.NoError(t, err)
	assert.Equal(t, "kes", table.Name())

	table, err = TableByName("multiplier")
	require.NoError(t, err)
	assert.Equal(t, "multiplier", table.Name())

	_, err = TableByName("flat")
	assert.Error(t, err)
}

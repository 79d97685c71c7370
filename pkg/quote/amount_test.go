package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "KES 7,000.00", Major(7000, KES).String())
	assert.Equal(t, "KES 500.00", Major(500, KES).String())
	assert.Equal(t, "$225.00", Major(225, USD).String())
	assert.Equal(t, "$0.50", Amount{Minor: 50, Currency: USD}.String())
}

func TestAmount_Arithmetic(t *testing.T) {
	a := Major(100, USD)

	assert.Equal(t, Major(150, USD), a.Scale(150))
	assert.Equal(t, Major(250, USD), a.Add(Major(150, USD)))
	assert.True(t, Amount{Currency: KES}.IsZero())
}

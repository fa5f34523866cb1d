package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeepsAmountAndCurrency(t *testing.T) {
	for _, raw := range []string{"0", "0.01", "100", "99999999.99"} {
		amount := decimal.RequireFromString(raw)
		m, err := New(amount, "USD")
		require.NoError(t, err)
		assert.True(t, m.Amount.Equal(amount), raw)
		assert.Equal(t, "USD", m.Currency)
	}
}

func TestNewDefaultsCurrency(t *testing.T) {
	m, err := New(decimal.NewFromInt(10), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, m.Currency)
}

func TestNewRejectsNegativeAmount(t *testing.T) {
	for _, raw := range []string{"-0.01", "-1", "-100.50"} {
		_, err := New(decimal.RequireFromString(raw), "BRL")
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestNewRejectsAmountsTheColumnCannotHold(t *testing.T) {
	for _, raw := range []string{"10.005", "0.001", "100000000", "99999999.999", "1e8"} {
		_, err := New(decimal.RequireFromString(raw), "BRL")
		assert.ErrorIs(t, err, ErrInvalidAmount, raw)
	}
}

func TestNewAcceptsTrailingZeros(t *testing.T) {
	m, err := New(decimal.RequireFromString("10.500"), "BRL")
	require.NoError(t, err)
	assert.Equal(t, int64(1050), m.MinorUnits())
}

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(decimal.NewFromInt(1), " usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
}

func TestNewRejectsInvalidCurrency(t *testing.T) {
	for _, raw := range []string{"brlx", "BR", "R$1", "US1", "€€€"} {
		_, err := New(decimal.NewFromInt(1), raw)
		assert.ErrorIs(t, err, ErrInvalidCurrency, raw)
	}
}

func TestAdd(t *testing.T) {
	a := MustNew("10.10", "BRL")
	b := MustNew("0.20", "BRL")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount.Equal(decimal.RequireFromString("10.30")))
	assert.Equal(t, "BRL", sum.Currency)

	// operands are untouched
	assert.True(t, a.Amount.Equal(decimal.RequireFromString("10.10")))
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	_, err := MustNew("1", "BRL").Add(MustNew("1", "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestEquals(t *testing.T) {
	assert.True(t, MustNew("100", "BRL").Equals(MustNew("100.00", "BRL")))
	assert.False(t, MustNew("100", "BRL").Equals(MustNew("100", "USD")))
	assert.False(t, MustNew("0.1", "BRL").Equals(MustNew("0.11", "BRL")))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10050), MustNew("100.50", "BRL").MinorUnits())
	assert.Equal(t, int64(1), MustNew("0.01", "BRL").MinorUnits())
	assert.Equal(t, int64(9999999999), MustNew("99999999.99", "BRL").MinorUnits())
	assert.Equal(t, "100.50 BRL", MustNew("100.5", "BRL").String())
}

// Package money provides an immutable amount tagged with a currency code.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency = "BRL"

	// Scale and MaxAmount mirror the numeric(10,2) amount column.
	Scale = 2
)

var MaxAmount = decimal.RequireFromString("99999999.99")

var (
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrCurrencyMismatch = errors.New("currency_mismatch")
)

// Money is a non-negative decimal amount in a single currency.
// Values are never mutated; arithmetic returns a new Money.
type Money struct {
	Amount   decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency string          `gorm:"column:currency;type:varchar(3);not null;default:BRL"`
}

// New validates amount and currency. Amounts must be non-negative, carry at
// most two decimal places and fit the stored column. Currency is a three-letter
// code, upper-cased; empty defaults to BRL.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() || amount.GreaterThan(MaxAmount) {
		return Money{}, ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(Scale)) {
		return Money{}, ErrInvalidAmount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !validCurrency(currency) {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// MustNew is New for constants and tests.
func MustNew(amount, currency string) Money {
	m, err := New(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Equals compares amount and currency exactly.
func (m Money) Equals(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Float64 returns the amount as a JSON-friendly number.
func (m Money) Float64() float64 {
	return m.Amount.InexactFloat64()
}

// MinorUnits returns the amount in cents.
func (m Money) MinorUnits() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}

// Package money represents monetary values as integer minor units (cents).
// Decimal conversion happens only when values cross the API boundary.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

// Amount is a monetary value in minor units.
type Amount int64

var (
	ErrTooPrecise      = errors.New("amount has more than two fractional digits")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCurrency = errors.New("invalid currency code")
)

// SupportedCurrencies lists the currency codes offered to clients.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "INR", "CAD", "AUD"}

// FromCents builds an Amount from minor units.
func FromCents(cents int64) Amount {
	return Amount(cents)
}

// Parse reads a decimal string such as "100.00" or "12.5".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals; it panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts d to minor units. Values with more than two
// fractional digits are rejected rather than rounded.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, d.String())
	}
	cents := d.Shift(Scale)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, d.String())
	}
	return Amount(cents.IntPart()), nil
}

func (a Amount) Cents() int64 {
	return int64(a)
}

// Decimal returns the value as a decimal with two fractional digits.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) IsPositive() bool { return a > 0 }
func (a Amount) IsNegative() bool { return a < 0 }
func (a Amount) IsZero() bool     { return a == 0 }

func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// DivRound divides a by n and rounds half away from zero to the nearest cent.
func (a Amount) DivRound(n int64) Amount {
	if n <= 0 {
		panic("money: division by non-positive count")
	}
	return Amount(roundHalfUp(int64(a), n))
}

// Percent returns the share of a for a percentage expressed in basis points
// (1% == 100), rounded half up to the cent.
func (a Amount) Percent(basisPoints int64) Amount {
	return Amount(roundHalfUp(int64(a)*basisPoints, 10000))
}

func roundHalfUp(num, den int64) int64 {
	if num < 0 {
		return -roundHalfUp(-num, den)
	}
	return (2*num + den) / (2 * den)
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Sum adds all amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// MarshalJSON encodes the amount as a quoted decimal string ("50.00").
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts both "50.00" and 50.00.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// NormalizeCurrency upper-cases code and checks it against ISO 4217.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

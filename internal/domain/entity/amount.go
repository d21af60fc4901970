package entity

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places money is kept in
const AmountPlaces = 2

// MaxAmount is the largest amount a single voucher may carry.
// Totals over it still fit the int64 cents columns.
var MaxAmount = AmountFromCents(99_999_999_999_999)

// Amount is a money value with two decimal places.
// It is encoded in JSON as a bare number, e.g. 1500.00.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds d to two places
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d.Round(AmountPlaces)}
}

// AmountFromCents builds an amount from an integer count of cents
func AmountFromCents(cents int64) Amount {
	return Amount{Decimal: decimal.New(cents, -AmountPlaces)}
}

// ParseAmount parses user input such as "1500" or "1,500.50" into a positive amount
func ParseAmount(s string) (Amount, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if raw == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	amount := NewAmount(d)
	if !amount.InRange() {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return amount, nil
}

// InRange reports whether the amount is positive and at most MaxAmount
func (a Amount) InRange() bool {
	return a.IsPositive() && !a.Decimal.GreaterThan(MaxAmount.Decimal)
}

// Cents returns the amount as an integer count of cents
func (a Amount) Cents() int64 {
	return a.Decimal.Shift(AmountPlaces).Round(0).IntPart()
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// String returns the amount with exactly two decimal places
func (a Amount) String() string {
	return a.Decimal.StringFixed(AmountPlaces)
}

// MarshalJSON encodes the amount as a JSON number
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	*a = NewAmount(d)
	return nil
}

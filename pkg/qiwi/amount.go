package qiwi

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Currency is the set of currencies the payment API accepts.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

// Amount is a validated monetary value. The value is kept as an exact
// decimal, so "100.10" stays "100.10" on the wire.
type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

// NewAmount validates the decimal string and builds an Amount.
func NewAmount(value string, currency Currency) (*Amount, error) {
	a := &Amount{}
	if err := a.Patch(AmountPayload{Value: value, Currency: currency}); err != nil {
		return nil, err
	}
	return a, nil
}

// ValidateAmountValue enforces the API's digit-length constraint: at most
// 6 integer digits and at most 2 fractional digits. A value without a
// fractional part always passes the fractional check.
func ValidateAmountValue(value string) error {
	intPart, fracPart, found := strings.Cut(value, ".")
	if !found {
		fracPart = "0"
	}
	if len(intPart) > 6 {
		return errors.Wrapf(ErrInvalidAmountValue, "integer part %q exceeds 6 digits", intPart)
	}
	if len(fracPart) > 2 {
		return errors.Wrapf(ErrInvalidAmountValue, "fractional part %q exceeds 2 digits", fracPart)
	}
	return nil
}

// Patch re-validates and overwrites the amount in place, so existing
// holders observe the new value.
func (a *Amount) Patch(p AmountPayload) error {
	if err := ValidateAmountValue(p.Value); err != nil {
		return err
	}
	value, err := decimal.NewFromString(p.Value)
	if err != nil {
		return errors.Wrapf(ErrInvalidAmountValue, "parse %q", p.Value)
	}
	a.Value = value
	a.Currency = p.Currency
	return nil
}

// Payload returns the wire representation. The fractional width of the
// parsed value is preserved, so "100.10" does not degrade to "100.1".
func (a *Amount) Payload() AmountPayload {
	value := a.Value.String()
	if exp := a.Value.Exponent(); exp < 0 {
		value = a.Value.StringFixed(-exp)
	}
	return AmountPayload{Value: value, Currency: a.Currency}
}

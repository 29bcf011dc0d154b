package qiwi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAmountValidation(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		expectErr bool
	}{
		{name: "two fractional digits", value: "100.50", expectErr: false},
		{name: "integer only", value: "100", expectErr: false},
		{name: "max integer digits", value: "999999.99", expectErr: false},
		{name: "seven integer digits", value: "1234567", expectErr: true},
		{name: "seven integer digits with fraction", value: "1234567.00", expectErr: true},
		{name: "three fractional digits", value: "1.123", expectErr: true},
		{name: "not a number", value: "12a.50", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := NewAmount(tt.value, CurrencyUSD)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidAmountValue)
			} else {
				require.NoError(t, err)
				assert.Equal(t, CurrencyUSD, amount.Currency)
			}
		})
	}
}

func TestAmountKeepsExactDecimal(t *testing.T) {
	amount, err := NewAmount("100.10", CurrencyRUB)
	require.NoError(t, err)

	// No floating point drift: the wire value round-trips verbatim.
	assert.Equal(t, "100.10", amount.Payload().Value)
}

func TestAmountPatchMutatesInPlace(t *testing.T) {
	amount, err := NewAmount("10.00", CurrencyUSD)
	require.NoError(t, err)
	alias := amount

	require.NoError(t, amount.Patch(AmountPayload{Value: "25.50", Currency: CurrencyEUR}))

	assert.Equal(t, "25.50", alias.Payload().Value)
	assert.Equal(t, CurrencyEUR, alias.Currency)
}

func TestAmountPatchRejectsInvalid(t *testing.T) {
	amount, err := NewAmount("10.00", CurrencyUSD)
	require.NoError(t, err)

	err = amount.Patch(AmountPayload{Value: "1.999", Currency: CurrencyUSD})
	assert.ErrorIs(t, err, ErrInvalidAmountValue)

	// The failed patch left the amount untouched.
	assert.Equal(t, "10.00", amount.Payload().Value)
}

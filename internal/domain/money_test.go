package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input  string
		micros int64
	}{
		{"40.00", 40_000_000},
		{"0.01", 10_000},
		{"1000", 1_000_000_000},
		{"0.000001", 1},
		{"-5.25", -5_250_000},
	}
	for _, tt := range tests {
		m, err := ParseMoney(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.micros, m.Micros(), tt.input)
	}

	_, err := ParseMoney("not-a-number")
	assert.Error(t, err)
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "40.00", NewMoney(40_000_000).String())
	assert.Equal(t, "0.01", NewMoney(10_000).String())
	assert.Equal(t, "1000.00", NewMoney(1_000_000_000).String())
	assert.Equal(t, "0.00", NewMoney(0).String())
}

func TestMoneyPositive(t *testing.T) {
	assert.True(t, NewMoney(1).Positive())
	assert.False(t, NewMoney(0).Positive())
	assert.False(t, NewMoney(-1).Positive())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(NewMoney(40_500_000))
	require.NoError(t, err)
	assert.Equal(t, `"40.50"`, string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`"25.00"`), &m))
	assert.Equal(t, int64(25_000_000), m.Micros())

	// Numeric JSON amounts are rejected; clients must send decimal strings.
	assert.Error(t, json.Unmarshal([]byte(`25`), &m))
}

func TestMoneyFromDecimal(t *testing.T) {
	d := decimal.RequireFromString("12.345678")
	assert.Equal(t, int64(12_345_678), MoneyFromDecimal(d).Micros())

	// Sub-micro precision truncates toward zero.
	d = decimal.RequireFromString("0.0000019")
	assert.Equal(t, int64(1), MoneyFromDecimal(d).Micros())
}

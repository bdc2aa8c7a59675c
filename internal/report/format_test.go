package report

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{1234, "1,234"},
		{18248, "18,248"},
		{-1234, "-1,234"},
		{1234567890, "1,234,567,890"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.n))
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name      string
		f         float64
		precision int
		want      string
	}{
		{name: "thousands", f: 1234.567, precision: 2, want: "1,234.57"},
		{name: "small value", f: 0.000833, precision: 4, want: "0.0008"},
		{name: "meal total", f: 0.2963, precision: 4, want: "0.2963"},
		{name: "pads zeros", f: 1.5, precision: 3, want: "1.500"},
		{name: "negative", f: -1234.5, precision: 1, want: "-1,234.5"},
		{name: "half away from zero", f: 2.5, precision: 0, want: "3"},
		{name: "negative rounds to zero", f: -0.04, precision: 1, want: "0.0"},
		{name: "millions", f: 1e6, precision: 0, want: "1,000,000"},
		{name: "negative precision clamps", f: 7.6, precision: -2, want: "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.f, tt.precision))
		})
	}
	assert.Equal(t, "NaN", FormatFloat(math.NaN(), 2))
}

func TestFormatLarge(t *testing.T) {
	assert.Equal(t, "999,999", FormatLarge(999_999))
	assert.Equal(t, "~1.5 million", FormatLarge(1_500_000))
	assert.Equal(t, "~2.0 billion", FormatLarge(2_000_000_000))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.2346 kg CO2e", FormatAmount(1.23456, UnitKg, 4))
	assert.Equal(t, "[0.10, 0.90]", FormatInterval(0.1, 0.9, 2))
}

func TestUnits(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
		kg1  float64
	}{
		{"", UnitKg, 1},
		{"KG", UnitKg, 1},
		{"kgCO2e", UnitKg, 1},
		{"g", UnitGrams, 1000},
		{"gCO2e", UnitGrams, 1000},
		{"lb", UnitLb, 2.20462262185},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseUnit(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
			v, err := u.FromKg(1)
			require.NoError(t, err)
			assert.InDelta(t, tt.kg1, v, 1e-9)
		})
	}

	_, err := ParseUnit("t")
	assert.ErrorIs(t, err, ErrInvalidUnit)

	_, err = UnitKg.FromKg(-1)
	assert.ErrorIs(t, err, ErrNegativeValue)
	_, err = UnitKg.FromKg(math.Inf(1))
	assert.ErrorIs(t, err, ErrCalculationOverflow)

	assert.Equal(t, "g CO2e", UnitGrams.Label())
	assert.Equal(t, "kg CO2e", Unit("").Label())
}

func TestCalculateEquivalency(t *testing.T) {
	t.Run("one kilogram", func(t *testing.T) {
		eq, err := CalculateEquivalency(1)
		require.NoError(t, err)
		require.False(t, eq.IsEmpty)
		require.Len(t, eq.Results, 2)
		assert.InDelta(t, 5.208333, eq.Results[0].Value, 1e-5)
		assert.InDelta(t, 121.65, eq.Results[1].Value, 0.01)
		assert.Equal(t, "Equivalent to driving ~5.2 miles or charging ~122 smartphones", eq.DisplayText)
		assert.Equal(t, "(≈ 5.2 mi, 122 phones)", eq.CompactText)
		assert.Equal(t, "MilesDriven", eq.Results[0].Type.String())
	})

	t.Run("large", func(t *testing.T) {
		eq, err := CalculateEquivalency(150)
		require.NoError(t, err)
		assert.Equal(t, "781", eq.Results[0].FormattedValue)
		assert.Equal(t, "18,248", eq.Results[1].FormattedValue)
	})

	t.Run("below threshold", func(t *testing.T) {
		eq, err := CalculateEquivalency(0.005)
		require.NoError(t, err)
		assert.True(t, eq.IsEmpty)
		assert.Equal(t, 0.005, eq.InputKg)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := CalculateEquivalency(-1)
		assert.ErrorIs(t, err, ErrNegativeValue)
		_, err = CalculateEquivalency(math.NaN())
		assert.ErrorIs(t, err, ErrCalculationOverflow)
	})
}

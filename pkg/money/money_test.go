package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound2RoundsHalfAwayFromZero(t *testing.T) {
	got := Round2(decimal.RequireFromString("10.005"))
	require.True(t, got.Equal(decimal.RequireFromString("10.01")), got.String())
}

func TestParseRoundsToScale(t *testing.T) {
	d, err := Parse("1234.5678")
	require.NoError(t, err)
	require.True(t, d.Equal(decimal.RequireFromString("1234.57")))
}

func TestParseRejectsInvalidInput(t *testing.T) {
	_, err := Parse("not-a-number")
	require.Error(t, err)
}

func TestFromFloatRoundsToScale(t *testing.T) {
	d := FromFloat(19.999)
	require.True(t, d.Equal(decimal.RequireFromString("20.00")))
}

func TestIsPositive(t *testing.T) {
	require.True(t, IsPositive(decimal.RequireFromString("0.01")))
	require.False(t, IsPositive(decimal.Zero))
	require.False(t, IsPositive(decimal.RequireFromString("-1")))
}

func TestMaxAndMin(t *testing.T) {
	a := decimal.RequireFromString("100")
	b := decimal.RequireFromString("200")
	require.True(t, Max(a, b).Equal(b))
	require.True(t, Min(a, b).Equal(a))
}

func TestMaxZeroClampsNegative(t *testing.T) {
	got := MaxZero(decimal.RequireFromString("-50"))
	require.True(t, got.IsZero())
	got = MaxZero(decimal.RequireFromString("50"))
	require.True(t, got.Equal(decimal.RequireFromString("50")))
}

func TestNormalizeRatePassesThroughFraction(t *testing.T) {
	got := NormalizeRate(decimal.RequireFromString("0.05"))
	require.True(t, got.Equal(decimal.RequireFromString("0.05")))
}

func TestNormalizeRateConvertsPercentage(t *testing.T) {
	got := NormalizeRate(decimal.RequireFromString("5"))
	require.True(t, got.Equal(decimal.RequireFromString("0.05")))
}

func TestNormalizeRateBoundaryOneIsFraction(t *testing.T) {
	got := NormalizeRate(decimal.NewFromInt(1))
	require.True(t, got.Equal(decimal.NewFromInt(1)), "value exactly 1 must be treated as a fraction, not 1%%")
}

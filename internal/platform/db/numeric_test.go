package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDecimalNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "119000", "142800.5", "-0.001"} {
		d := decimal.RequireFromString(s)
		got := NumericToDecimal(DecimalToNumeric(d))
		require.True(t, d.Equal(got), "round trip %s, got %s", s, got)
	}
}

func TestDecimalToNumericFixedScale(t *testing.T) {
	n := DecimalToNumeric(decimal.RequireFromString("1.2"))
	require.True(t, n.Valid)
	require.EqualValues(t, -3, n.Exp)
	require.EqualValues(t, 1200, n.Int.Int64())
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRound3HalfToEven(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.2345", "1.234"},
		{"1.2355", "1.236"},
		{"1.23449", "1.234"},
		{"-1.2345", "-1.234"},
		{"0.0005", "0"},
		{"0.0015", "0.002"},
	}
	for _, c := range cases {
		d := decimal.RequireFromString(c.in)
		require.Equal(t, c.want, Round3(d).String(), "round %s", c.in)
	}
}

func TestMulInt(t *testing.T) {
	d := decimal.RequireFromString("142800")
	require.Equal(t, "428400", MulInt(d, 3).String())
}

func TestIsNegative(t *testing.T) {
	require.True(t, IsNegative(decimal.RequireFromString("-0.001")))
	require.False(t, IsNegative(Zero))
}

package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestQuoteWithProfit(t *testing.T) {
	b, err := Quote(dec("100000"), dec("20"), 3)
	require.NoError(t, err)

	require.True(t, b.VATUnit.Equal(dec("19000")), "vat_unit = %s", b.VATUnit)
	require.True(t, b.PriceWithVAT.Equal(dec("119000")), "price_with_vat = %s", b.PriceWithVAT)
	require.True(t, b.SaleUnitPrice.Equal(dec("142800")), "sale_unit_price = %s", b.SaleUnitPrice)
	require.True(t, b.ProfitUnit.Equal(dec("23800")), "profit_unit = %s", b.ProfitUnit)
	require.True(t, b.Subtotal.Equal(dec("300000")), "subtotal = %s", b.Subtotal)
	require.True(t, b.VATTotal.Equal(dec("57000")), "vat_total = %s", b.VATTotal)
	require.True(t, b.ProfitTotal.Equal(dec("71400")), "profit_total = %s", b.ProfitTotal)
	require.True(t, b.Total.Equal(dec("428400")), "total = %s", b.Total)
}

func TestQuoteWithoutProfit(t *testing.T) {
	b, err := Quote(dec("100000"), decimal.Zero, 2)
	require.NoError(t, err)

	require.True(t, b.SaleUnitPrice.Equal(b.PriceWithVAT))
	require.True(t, b.ProfitUnit.IsZero())
	require.True(t, b.ProfitTotal.IsZero())
	require.True(t, b.Total.Equal(dec("238000")))
}

func TestQuoteRoundsIntermediates(t *testing.T) {
	// 0.19 * 10.5 = 1.995 exactly; price with VAT rounds to 12.495.
	b, err := Quote(dec("10.5"), dec("7"), 1)
	require.NoError(t, err)
	require.True(t, b.VATUnit.Equal(dec("1.995")), "vat_unit = %s", b.VATUnit)
	require.True(t, b.PriceWithVAT.Equal(dec("12.495")), "price_with_vat = %s", b.PriceWithVAT)
	// 12.495 * 1.07 = 13.36965 -> 13.37 after banker's rounding.
	require.True(t, b.SaleUnitPrice.Equal(dec("13.37")), "sale_unit_price = %s", b.SaleUnitPrice)
	require.True(t, b.ProfitUnit.Equal(dec("0.875")), "profit_unit = %s", b.ProfitUnit)
}

func TestQuoteValidation(t *testing.T) {
	_, err := Quote(dec("-1"), decimal.Zero, 1)
	require.ErrorIs(t, err, ErrNegativePrice)

	_, err = Quote(dec("10"), dec("-5"), 1)
	require.ErrorIs(t, err, ErrNegativeProfit)

	_, err = Quote(dec("10"), decimal.Zero, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestResolveProfitPct(t *testing.T) {
	require.True(t, ResolveProfitPct(dec("25"), dec("10")).Equal(dec("25")))
	require.True(t, ResolveProfitPct(decimal.Zero, dec("10")).Equal(dec("10")))
	require.True(t, ResolveProfitPct(decimal.Zero, decimal.Zero).IsZero())
}

func TestQuoteIdempotent(t *testing.T) {
	a, err := Quote(dec("37450.5"), dec("12.5"), 7)
	require.NoError(t, err)
	b, err := Quote(dec("37450.5"), dec("12.5"), 7)
	require.NoError(t, err)
	require.True(t, a.Total.Equal(b.Total))
	require.True(t, a.ProfitTotal.Equal(b.ProfitTotal))
}

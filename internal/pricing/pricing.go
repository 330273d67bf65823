// Package pricing computes VAT-inclusive sale prices and profit
// breakdowns. All functions are pure and safe for concurrent use.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/money"
)

// VATRate is the fixed value-added tax rate applied to every sale.
var VATRate = decimal.New(19, -2)

var (
	// ErrNegativePrice indicates a unit price below zero.
	ErrNegativePrice = errors.New("pricing: unit price must be >= 0")
	// ErrNegativeProfit indicates a profit percentage below zero.
	ErrNegativeProfit = errors.New("pricing: profit percent must be >= 0")
	// ErrInvalidQuantity indicates a quantity of zero or less.
	ErrInvalidQuantity = errors.New("pricing: quantity must be > 0")
)

// Breakdown is the full price decomposition for one sale line.
// Every amount is rounded to three decimals at the step it is derived,
// so stored figures reproduce exactly on recomputation.
type Breakdown struct {
	UnitPrice     decimal.Decimal
	VATUnit       decimal.Decimal
	PriceWithVAT  decimal.Decimal
	ProfitPct     decimal.Decimal
	ProfitUnit    decimal.Decimal
	SaleUnitPrice decimal.Decimal
	Subtotal      decimal.Decimal
	VATTotal      decimal.Decimal
	ProfitTotal   decimal.Decimal
	Total         decimal.Decimal
}

// ResolveProfitPct picks the effective profit percentage for a sale: an
// explicit override wins over the product default, zero when neither is set.
func ResolveProfitPct(override, productDefault decimal.Decimal) decimal.Decimal {
	if override.Sign() > 0 {
		return override
	}
	return productDefault
}

// Quote derives the complete breakdown for quantity units sold at
// unitPrice (VAT-exclusive) with the given profit markup on top of the
// VAT-inclusive price.
func Quote(unitPrice, profitPct decimal.Decimal, quantity int64) (Breakdown, error) {
	if unitPrice.Sign() < 0 {
		return Breakdown{}, ErrNegativePrice
	}
	if profitPct.Sign() < 0 {
		return Breakdown{}, ErrNegativeProfit
	}
	if quantity <= 0 {
		return Breakdown{}, ErrInvalidQuantity
	}

	vatUnit := money.Round3(unitPrice.Mul(VATRate))
	priceWithVAT := money.Round3(unitPrice.Add(vatUnit))

	saleUnitPrice := priceWithVAT
	if profitPct.Sign() > 0 {
		markup := decimal.NewFromInt(1).Add(profitPct.Div(decimal.NewFromInt(100)))
		saleUnitPrice = money.Round3(priceWithVAT.Mul(markup))
	}
	profitUnit := money.Round3(saleUnitPrice.Sub(priceWithVAT))

	subtotal := money.MulInt(unitPrice, quantity)

	return Breakdown{
		UnitPrice:     money.Round3(unitPrice),
		VATUnit:       vatUnit,
		PriceWithVAT:  priceWithVAT,
		ProfitPct:     profitPct,
		ProfitUnit:    profitUnit,
		SaleUnitPrice: saleUnitPrice,
		Subtotal:      subtotal,
		VATTotal:      money.Round3(subtotal.Mul(VATRate)),
		ProfitTotal:   money.MulInt(profitUnit, quantity),
		Total:         money.MulInt(saleUnitPrice, quantity),
	}, nil
}

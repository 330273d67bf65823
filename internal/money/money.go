// Package money provides the fixed-point arithmetic used for every
// monetary amount in the ledger. Amounts carry three decimal places and
// are rounded half-to-even, matching the historical pricing data.
package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places kept on monetary amounts.
const Scale = 3

// Zero is the zero amount.
var Zero = decimal.Zero

// Round3 rounds an amount to three decimal places using banker's rounding.
func Round3(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(Scale)
}

// MulInt multiplies an amount by an integer count and rounds the result.
func MulInt(d decimal.Decimal, n int64) decimal.Decimal {
	return Round3(d.Mul(decimal.NewFromInt(n)))
}

// IsNegative reports whether the amount is below zero.
func IsNegative(d decimal.Decimal) bool {
	return d.Sign() < 0
}

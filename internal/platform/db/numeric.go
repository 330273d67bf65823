package db

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/money"
)

// NumericToDecimal converts a scanned NUMERIC column into a decimal.
// NULL maps to zero; money columns in the schema are NOT NULL.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// DecimalToNumeric converts a decimal into a NUMERIC bind parameter,
// fixed to the monetary scale so stored values always carry three
// decimal places.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(money.Scale))
	return n
}

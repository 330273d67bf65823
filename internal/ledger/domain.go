// Package ledger records sales as immutable financial facts and is the
// only writer of stock deltas derived from sale history. Every mutation
// runs inside one database transaction: a sale row never exists without
// its matching stock decrement and vice versa.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is one recorded sale. Product name, category, unit price and
// seller name are snapshots taken at creation time: later edits to the
// referenced product never rewrite sale history. All derived amounts
// are recomputed only through the explicit edit operation.
type Sale struct {
	ID            int64           `json:"id"`
	Reference     string          `json:"reference"`
	Date          time.Time       `json:"date"`
	Time          string          `json:"time"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VATUnit       decimal.Decimal `json:"vat_unit"`
	PriceWithVAT  decimal.Decimal `json:"price_with_vat"`
	ProfitPct     decimal.Decimal `json:"profit_pct"`
	ProfitUnit    decimal.Decimal `json:"profit_unit"`
	SaleUnitPrice decimal.Decimal `json:"sale_unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	VATTotal      decimal.Decimal `json:"vat_total"`
	ProfitTotal   decimal.Decimal `json:"profit_total"`
	Total         decimal.Decimal `json:"total"`
	SellerID      int64           `json:"seller_id"`
	SellerName    string          `json:"seller_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateSaleRequest registers a sale of a catalogue product.
// ProfitOverride, when positive, wins over the product's default profit
// percentage. RequestKey, when set, makes the create idempotent:
// re-submitting the same key cannot decrement stock twice.
type CreateSaleRequest struct {
	ProductID      int64           `json:"product_id" validate:"required,gt=0"`
	Quantity       int64           `json:"quantity" validate:"required,gt=0"`
	ProfitOverride decimal.Decimal `json:"profit_override"`
	RequestKey     string          `json:"request_key,omitempty" validate:"omitempty,max=100"`
}

// EditSaleRequest repoints and recomputes an existing sale. Stock moved
// by the original sale is restored to the original product and consumed
// from the new one (the same product when unchanged).
type EditSaleRequest struct {
	ProductID      int64           `json:"product_id" validate:"required,gt=0"`
	Quantity       int64           `json:"quantity" validate:"required,gt=0"`
	ProfitOverride decimal.Decimal `json:"profit_override"`
}

// ListFilter bounds a sale listing by date, inclusive on both ends.
type ListFilter struct {
	From time.Time
	To   time.Time
}

// Totals summarises a listed set of sales.
type Totals struct {
	Count       int64           `json:"count"`
	TotalSold   decimal.Decimal `json:"total_sold"`
	VATTotal    decimal.Decimal `json:"vat_total"`
	ProfitTotal decimal.Decimal `json:"profit_total"`
}

// ErrNotFound indicates an unknown sale id.
var ErrNotFound = errors.New("ledger: sale not found")

// ErrTxConflict indicates the transaction lost a write race and may be
// retried by the caller.
var ErrTxConflict = errors.New("ledger: transaction conflict, retry")

// Package catalog owns the parts catalogue: product records, their
// pricing defaults and the stock counters consumed by the sale ledger.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a part held in stock. TotalValue is derived and always
// equals stock times unit price rounded to three decimals; PriceWithVAT
// and SalePrice are derived from the unit price and default profit
// percentage. All three are recomputed on every mutation.
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Brand        string          `json:"brand,omitempty"`
	Stock        int64           `json:"stock"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ProfitPct    decimal.Decimal `json:"profit_pct"`
	PriceWithVAT decimal.Decimal `json:"price_with_vat"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Description  string          `json:"description,omitempty"`
	TotalValue   decimal.Decimal `json:"total_value"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateProductRequest carries the fields accepted when registering a product.
type CreateProductRequest struct {
	SKU         string          `json:"sku,omitempty" validate:"omitempty,max=50"`
	Name        string          `json:"name" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=100"`
	Brand       string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Stock       int64           `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ProfitPct   decimal.Decimal `json:"profit_pct"`
	Description string          `json:"description,omitempty"`
}

// UpdateProductRequest replaces every editable field of a product.
type UpdateProductRequest struct {
	SKU         string          `json:"sku,omitempty" validate:"omitempty,max=50"`
	Name        string          `json:"name" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=100"`
	Brand       string          `json:"brand,omitempty" validate:"omitempty,max=100"`
	Stock       int64           `json:"stock"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ProfitPct   decimal.Decimal `json:"profit_pct"`
	Description string          `json:"description,omitempty"`
}

// ListFilter narrows and orders product listings.
type ListFilter struct {
	Search   string
	Category string
	// Sort is one of "name", "price_asc", "price_desc", "stock"; empty sorts by id.
	Sort  string
	Limit int
}

// ErrNotFound indicates an unknown product id.
var ErrNotFound = errors.New("catalog: product not found")

// ErrInvalidInput indicates a negative stock or price on input.
var ErrInvalidInput = errors.New("catalog: stock and unit price must be >= 0")

// ErrSKUExists indicates a duplicate non-empty SKU.
var ErrSKUExists = errors.New("catalog: sku already in use")

// ErrProductReferenced rejects deleting a product that still has sale history.
var ErrProductReferenced = errors.New("catalog: product referenced by sales")

// InsufficientStockError reports a stock adjustment that would take the
// counter below zero, carrying the quantity actually available.
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

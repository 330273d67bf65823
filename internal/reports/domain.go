// Package reports aggregates the sale ledger and product catalogue into
// read-only dashboards and tax reports. Nothing here writes; the
// versioned cache is invalidated by the mutating modules.
package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds an aggregation window, inclusive on both ends. Zero
// values leave the corresponding end open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// TopProduct is one row of the dashboard best-seller list. Ties on
// quantity resolve to the product that sold first.
type TopProduct struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// CategoryTotal sums sales revenue per product category.
type CategoryTotal struct {
	Category string          `json:"category"`
	NumSales int64           `json:"num_sales"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// DailyBucket is one day of sales activity.
type DailyBucket struct {
	Date     time.Time       `json:"date"`
	NumSales int64           `json:"num_sales"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// MonthlyBucket is one calendar month of sales activity.
type MonthlyBucket struct {
	Month    string          `json:"month"`
	NumSales int64           `json:"num_sales"`
	Quantity int64           `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// LowStockProduct is a product at or below the configured threshold.
type LowStockProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Stock     int64  `json:"stock"`
}

// DashboardMetrics is the landing-page aggregate.
type DashboardMetrics struct {
	ProductCount   int64             `json:"product_count"`
	InventoryValue decimal.Decimal   `json:"inventory_value"`
	LowStockCount  int64             `json:"low_stock_count"`
	SalesCount     int64             `json:"sales_count"`
	Revenue        decimal.Decimal   `json:"revenue"`
	TopProducts    []TopProduct      `json:"top_products"`
	Categories     []CategoryTotal   `json:"categories"`
	LastWeek       []DailyBucket     `json:"last_week"`
	Critical       []LowStockProduct `json:"critical"`
}

// VATRow is one year-month group of the VAT report.
type VATRow struct {
	Period    string          `json:"period"`
	NumSales  int64           `json:"num_sales"`
	TotalSold decimal.Decimal `json:"total_sold"`
	VATTotal  decimal.Decimal `json:"vat_total"`
}

// VATReport groups sales by year-month with grand totals.
type VATReport struct {
	Rows      []VATRow        `json:"rows"`
	NumSales  int64           `json:"num_sales"`
	TotalSold decimal.Decimal `json:"total_sold"`
	VATTotal  decimal.Decimal `json:"vat_total"`
}

// ProfitabilityRow aggregates profit per product. MarginPct is
// profit_total over total_sold as a percentage, zero when nothing was
// sold.
type ProfitabilityRow struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	NumSales      int64           `json:"num_sales"`
	QuantitySold  int64           `json:"quantity_sold"`
	TotalSold     decimal.Decimal `json:"total_sold"`
	AvgProfitUnit decimal.Decimal `json:"avg_profit_unit"`
	ProfitTotal   decimal.Decimal `json:"profit_total"`
	MarginPct     decimal.Decimal `json:"margin_pct"`
}

// Profitability sort keys.
const (
	SortByProfit   = "profit"
	SortByQuantity = "quantity"
)

// PeriodReport buckets sales per day and per month over a range.
type PeriodReport struct {
	Daily   []DailyBucket   `json:"daily"`
	Monthly []MonthlyBucket `json:"monthly"`
}

// InventoryTotals summarises the whole catalogue.
type InventoryTotals struct {
	ProductCount int64           `json:"product_count"`
	UnitCount    int64           `json:"unit_count"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

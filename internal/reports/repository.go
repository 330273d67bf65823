package reports

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/platform/db"
)

// Repository runs the aggregate queries. All sums COALESCE to zero so
// an empty ledger yields empty reports instead of NULL scan errors.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InventoryStats is the catalogue slice of the dashboard.
type InventoryStats struct {
	ProductCount   int64
	InventoryValue decimal.Decimal
	LowStockCount  int64
}

// SalesStats is the ledger slice of the dashboard.
type SalesStats struct {
	SalesCount int64
	Revenue    decimal.Decimal
}

func dateBounds(r DateRange, args []any) (string, []any) {
	clause := ""
	if !r.From.IsZero() {
		args = append(args, r.From)
		clause += fmt.Sprintf(" AND sale_date >= $%d", len(args))
	}
	if !r.To.IsZero() {
		args = append(args, r.To)
		clause += fmt.Sprintf(" AND sale_date <= $%d", len(args))
	}
	return clause, args
}

func (r *Repository) InventoryStats(ctx context.Context, lowStockThreshold int64) (InventoryStats, error) {
	const query = `SELECT COUNT(*),
		COALESCE(SUM(total_value), 0),
		COUNT(*) FILTER (WHERE stock <= $1)
	FROM products`
	var (
		stats InventoryStats
		value pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, query, lowStockThreshold).
		Scan(&stats.ProductCount, &value, &stats.LowStockCount)
	stats.InventoryValue = db.NumericToDecimal(value)
	return stats, err
}

func (r *Repository) SalesStats(ctx context.Context, dr DateRange) (SalesStats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(total), 0) FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	var (
		stats   SalesStats
		revenue pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, query+clause, args...).Scan(&stats.SalesCount, &revenue)
	stats.Revenue = db.NumericToDecimal(revenue)
	return stats, err
}

func (r *Repository) TopProducts(ctx context.Context, dr DateRange, limit int) ([]TopProduct, error) {
	query := `SELECT product_id, MAX(product_name), COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
	FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	args = append(args, limit)
	query += clause + fmt.Sprintf(` GROUP BY product_id ORDER BY SUM(quantity) DESC, MIN(id) ASC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var (
			tp      TopProduct
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.Quantity, &revenue); err != nil {
			return nil, err
		}
		tp.Revenue = db.NumericToDecimal(revenue)
		out = append(out, tp)
	}
	return out, rows.Err()
}

func (r *Repository) CategoryTotals(ctx context.Context, dr DateRange) ([]CategoryTotal, error) {
	query := `SELECT category, COUNT(*), COALESCE(SUM(total), 0) FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	query += clause + ` GROUP BY category ORDER BY SUM(total) DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryTotal
	for rows.Next() {
		var (
			ct      CategoryTotal
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&ct.Category, &ct.NumSales, &revenue); err != nil {
			return nil, err
		}
		ct.Revenue = db.NumericToDecimal(revenue)
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *Repository) DailySales(ctx context.Context, dr DateRange) ([]DailyBucket, error) {
	query := `SELECT sale_date, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
	FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	query += clause + ` GROUP BY sale_date ORDER BY sale_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyBucket
	for rows.Next() {
		var (
			b       DailyBucket
			day     pgtype.Date
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&day, &b.NumSales, &b.Quantity, &revenue); err != nil {
			return nil, err
		}
		b.Date = day.Time
		b.Revenue = db.NumericToDecimal(revenue)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) MonthlySales(ctx context.Context, dr DateRange) ([]MonthlyBucket, error) {
	query := `SELECT to_char(sale_date, 'YYYY-MM') AS month, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total), 0)
	FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	query += clause + ` GROUP BY month ORDER BY month ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyBucket
	for rows.Next() {
		var (
			b       MonthlyBucket
			revenue pgtype.Numeric
		)
		if err := rows.Scan(&b.Month, &b.NumSales, &b.Quantity, &revenue); err != nil {
			return nil, err
		}
		b.Revenue = db.NumericToDecimal(revenue)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) LowStockProducts(ctx context.Context, threshold int64) ([]LowStockProduct, error) {
	const query = `SELECT id, name, category, stock FROM products
	WHERE stock <= $1 ORDER BY stock ASC, name ASC`

	rows, err := r.pool.Query(ctx, query, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockProduct
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Category, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) VATRows(ctx context.Context, year, month int) ([]VATRow, error) {
	query := `SELECT to_char(sale_date, 'YYYY-MM') AS period, COUNT(*),
		COALESCE(SUM(total), 0), COALESCE(SUM(vat_total), 0)
	FROM sales WHERE 1=1`
	var args []any
	if year > 0 {
		args = append(args, year)
		query += fmt.Sprintf(` AND EXTRACT(YEAR FROM sale_date) = $%d`, len(args))
	}
	if month > 0 {
		args = append(args, month)
		query += fmt.Sprintf(` AND EXTRACT(MONTH FROM sale_date) = $%d`, len(args))
	}
	query += ` GROUP BY period ORDER BY period ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VATRow
	for rows.Next() {
		var (
			row            VATRow
			total, vatPart pgtype.Numeric
		)
		if err := rows.Scan(&row.Period, &row.NumSales, &total, &vatPart); err != nil {
			return nil, err
		}
		row.TotalSold = db.NumericToDecimal(total)
		row.VATTotal = db.NumericToDecimal(vatPart)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) ProfitabilityRows(ctx context.Context, dr DateRange, sort string) ([]ProfitabilityRow, error) {
	query := `SELECT product_id, MAX(product_name), COUNT(*), COALESCE(SUM(quantity), 0),
		COALESCE(SUM(total), 0), COALESCE(AVG(profit_unit), 0), COALESCE(SUM(profit_total), 0)
	FROM sales WHERE 1=1`
	clause, args := dateBounds(dr, nil)
	query += clause + ` GROUP BY product_id`
	switch sort {
	case SortByQuantity:
		query += ` ORDER BY SUM(quantity) DESC, MIN(id) ASC`
	default:
		query += ` ORDER BY SUM(profit_total) DESC, MIN(id) ASC`
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProfitabilityRow
	for rows.Next() {
		var (
			row                      ProfitabilityRow
			total, avgProfit, profit pgtype.Numeric
		)
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.NumSales, &row.QuantitySold,
			&total, &avgProfit, &profit); err != nil {
			return nil, err
		}
		row.TotalSold = db.NumericToDecimal(total)
		row.AvgProfitUnit = db.NumericToDecimal(avgProfit)
		row.ProfitTotal = db.NumericToDecimal(profit)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Repository) InventoryTotals(ctx context.Context) (InventoryTotals, error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(stock), 0), COALESCE(SUM(total_value), 0) FROM products`
	var (
		totals InventoryTotals
		value  pgtype.Numeric
	)
	err := r.pool.QueryRow(ctx, query).Scan(&totals.ProductCount, &totals.UnitCount, &value)
	if err != nil {
		return InventoryTotals{}, err
	}
	totals.StockValue = db.NumericToDecimal(value)
	return totals, nil
}

package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/catalog"
	"github.com/hd-motorparts/partsledger/internal/money"
	"github.com/hd-motorparts/partsledger/internal/platform/db"
)

// Repository persists sales in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations a ledger mutation
// needs: its own sale rows plus the locked product stock view.
type TxRepository interface {
	catalog.StockTx
	GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	UpdateSale(ctx context.Context, sale Sale) error
	DeleteSale(ctx context.Context, id int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
// A serialization failure surfaces as ErrTxConflict so the caller can
// retry the whole operation.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	if err != nil && db.IsSQLState(err, db.SerializationFailure) {
		return fmt.Errorf("%w: %v", ErrTxConflict, err)
	}
	return err
}

const saleColumns = `id, reference, sale_date, sale_time::text, product_id, product_name, category, quantity,
	unit_price, vat_unit, price_with_vat, profit_pct, profit_unit, sale_unit_price,
	subtotal, vat_total, profit_total, total, seller_id, seller_name, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var (
		s                                    Sale
		saleDate                             pgtype.Date
		unitPrice, vatUnit, priceWithVAT     pgtype.Numeric
		profitPct, profitUnit, saleUnitPrice pgtype.Numeric
		subtotal, vatTotal, profitTotal, tot pgtype.Numeric
		createdAt                            pgtype.Timestamptz
	)
	err := row.Scan(&s.ID, &s.Reference, &saleDate, &s.Time, &s.ProductID, &s.ProductName, &s.Category, &s.Quantity,
		&unitPrice, &vatUnit, &priceWithVAT, &profitPct, &profitUnit, &saleUnitPrice,
		&subtotal, &vatTotal, &profitTotal, &tot, &s.SellerID, &s.SellerName, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Date = saleDate.Time
	s.UnitPrice = db.NumericToDecimal(unitPrice)
	s.VATUnit = db.NumericToDecimal(vatUnit)
	s.PriceWithVAT = db.NumericToDecimal(priceWithVAT)
	s.ProfitPct = db.NumericToDecimal(profitPct)
	s.ProfitUnit = db.NumericToDecimal(profitUnit)
	s.SaleUnitPrice = db.NumericToDecimal(saleUnitPrice)
	s.Subtotal = db.NumericToDecimal(subtotal)
	s.VATTotal = db.NumericToDecimal(vatTotal)
	s.ProfitTotal = db.NumericToDecimal(profitTotal)
	s.Total = db.NumericToDecimal(tot)
	s.CreatedAt = createdAt.Time
	return &s, nil
}

// Get fetches one sale.
func (r *Repository) Get(ctx context.Context, id int64) (*Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns)
	return scanSale(r.pool.QueryRow(ctx, query, id))
}

// List fetches sales in the date range, oldest first, with totals
// accumulated over the returned set.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Sale, Totals, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE 1=1`, saleColumns)
	args := []any{}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(` AND sale_date >= $%d`, len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(` AND sale_date <= $%d`, len(args))
	}
	query += ` ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, Totals{}, err
	}
	defer rows.Close()

	var (
		sales  []Sale
		totals = Totals{TotalSold: money.Zero, VATTotal: money.Zero, ProfitTotal: money.Zero}
	)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, Totals{}, err
		}
		sales = append(sales, *s)
		totals.Count++
		totals.TotalSold = totals.TotalSold.Add(s.Total)
		totals.VATTotal = totals.VATTotal.Add(s.VATTotal)
		totals.ProfitTotal = totals.ProfitTotal.Add(s.ProfitTotal)
	}
	return sales, totals, rows.Err()
}

func (t *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (*Sale, error) {
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1 FOR UPDATE`, saleColumns)
	return scanSale(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) InsertSale(ctx context.Context, s Sale) (int64, error) {
	const query = `INSERT INTO sales (reference, sale_date, sale_time, product_id, product_name, category, quantity,
		unit_price, vat_unit, price_with_vat, profit_pct, profit_unit, sale_unit_price,
		subtotal, vat_total, profit_total, total, seller_id, seller_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query,
		s.Reference, pgtype.Date{Time: s.Date, Valid: true}, s.Time, s.ProductID, s.ProductName, s.Category, s.Quantity,
		db.DecimalToNumeric(s.UnitPrice), db.DecimalToNumeric(s.VATUnit), db.DecimalToNumeric(s.PriceWithVAT),
		db.DecimalToNumeric(s.ProfitPct), db.DecimalToNumeric(s.ProfitUnit), db.DecimalToNumeric(s.SaleUnitPrice),
		db.DecimalToNumeric(s.Subtotal), db.DecimalToNumeric(s.VATTotal), db.DecimalToNumeric(s.ProfitTotal),
		db.DecimalToNumeric(s.Total), s.SellerID, s.SellerName).Scan(&id)
	return id, err
}

func (t *txRepo) UpdateSale(ctx context.Context, s Sale) error {
	const query = `UPDATE sales SET product_id = $2, product_name = $3, category = $4, quantity = $5,
		unit_price = $6, vat_unit = $7, price_with_vat = $8, profit_pct = $9, profit_unit = $10,
		sale_unit_price = $11, subtotal = $12, vat_total = $13, profit_total = $14, total = $15
		WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, s.ID, s.ProductID, s.ProductName, s.Category, s.Quantity,
		db.DecimalToNumeric(s.UnitPrice), db.DecimalToNumeric(s.VATUnit), db.DecimalToNumeric(s.PriceWithVAT),
		db.DecimalToNumeric(s.ProfitPct), db.DecimalToNumeric(s.ProfitUnit), db.DecimalToNumeric(s.SaleUnitPrice),
		db.DecimalToNumeric(s.Subtotal), db.DecimalToNumeric(s.VATTotal), db.DecimalToNumeric(s.ProfitTotal),
		db.DecimalToNumeric(s.Total))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) DeleteSale(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForUpdate locks the product row and returns the fields pricing and
// the stock rule need.
func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*catalog.Product, error) {
	const query = `SELECT id, name, category, stock, unit_price, profit_pct FROM products WHERE id = $1 FOR UPDATE`
	var (
		p                    catalog.Product
		unitPrice, profitPct pgtype.Numeric
	)
	err := t.tx.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Category, &p.Stock, &unitPrice, &profitPct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	p.UnitPrice = db.NumericToDecimal(unitPrice)
	p.ProfitPct = db.NumericToDecimal(profitPct)
	return &p, nil
}

// SetStock rewrites the stock counter and derived total value under the
// lock taken by GetForUpdate.
func (t *txRepo) SetStock(ctx context.Context, id int64, stock int64, totalValue decimal.Decimal) error {
	const query = `UPDATE products SET stock = $2, total_value = $3, updated_at = NOW() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, id, stock, db.DecimalToNumeric(totalValue))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/platform/db"
)

// Repository persists the catalogue in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StockTx is the slice of the transactional repository the stock rule
// needs. The sale ledger's transactions satisfy it too.
type StockTx interface {
	GetForUpdate(ctx context.Context, id int64) (*Product, error)
	SetStock(ctx context.Context, id int64, stock int64, totalValue decimal.Decimal) error
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	StockTx
	Insert(ctx context.Context, product Product) (int64, error)
	Update(ctx context.Context, product Product) error
	CountSales(ctx context.Context, productID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const productColumns = `id, sku, name, category, brand, stock, unit_price, profit_pct, price_with_vat, sale_price, description, total_value, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var (
		p                                 Product
		sku, brand, description           pgtype.Text
		unitPrice, profitPct              pgtype.Numeric
		priceWithVAT, salePrice, totalVal pgtype.Numeric
		createdAt, updatedAt              pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &sku, &p.Name, &p.Category, &brand, &p.Stock,
		&unitPrice, &profitPct, &priceWithVAT, &salePrice, &description, &totalVal,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.SKU = sku.String
	p.Brand = brand.String
	p.Description = description.String
	p.UnitPrice = db.NumericToDecimal(unitPrice)
	p.ProfitPct = db.NumericToDecimal(profitPct)
	p.PriceWithVAT = db.NumericToDecimal(priceWithVAT)
	p.SalePrice = db.NumericToDecimal(salePrice)
	p.TotalValue = db.NumericToDecimal(totalVal)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

// Get fetches one product.
func (r *Repository) Get(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return scanProduct(r.pool.QueryRow(ctx, query, id))
}

// List fetches products matching the filter.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE 1=1`, productColumns)
	args := []any{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(` AND (name ILIKE $%d OR brand ILIKE $%d OR sku ILIKE $%d)`, len(args), len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}

	switch filter.Sort {
	case "name":
		query += ` ORDER BY name ASC`
	case "price_asc":
		query += ` ORDER BY unit_price ASC`
	case "price_desc":
		query += ` ORDER BY unit_price DESC`
	case "stock":
		query += ` ORDER BY stock ASC`
	default:
		query += ` ORDER BY id ASC`
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (t *txRepo) Insert(ctx context.Context, p Product) (int64, error) {
	const query = `INSERT INTO products (sku, name, category, brand, stock, unit_price, profit_pct, price_with_vat, sale_price, description, total_value)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id int64
	err := t.tx.QueryRow(ctx, query, p.SKU, p.Name, p.Category, p.Brand, p.Stock,
		db.DecimalToNumeric(p.UnitPrice), db.DecimalToNumeric(p.ProfitPct),
		db.DecimalToNumeric(p.PriceWithVAT), db.DecimalToNumeric(p.SalePrice),
		p.Description, db.DecimalToNumeric(p.TotalValue)).Scan(&id)
	if err != nil {
		if db.IsSQLState(err, db.UniqueViolation) {
			return 0, ErrSKUExists
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) Update(ctx context.Context, p Product) error {
	const query = `UPDATE products SET sku = NULLIF($2, ''), name = $3, category = $4, brand = $5, stock = $6,
		unit_price = $7, profit_pct = $8, price_with_vat = $9, sale_price = $10, description = $11,
		total_value = $12, updated_at = NOW()
		WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, p.ID, p.SKU, p.Name, p.Category, p.Brand, p.Stock,
		db.DecimalToNumeric(p.UnitPrice), db.DecimalToNumeric(p.ProfitPct),
		db.DecimalToNumeric(p.PriceWithVAT), db.DecimalToNumeric(p.SalePrice),
		p.Description, db.DecimalToNumeric(p.TotalValue))
	if err != nil {
		if db.IsSQLState(err, db.UniqueViolation) {
			return ErrSKUExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) GetForUpdate(ctx context.Context, id int64) (*Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1 FOR UPDATE`, productColumns)
	return scanProduct(t.tx.QueryRow(ctx, query, id))
}

func (t *txRepo) SetStock(ctx context.Context, id int64, stock int64, totalValue decimal.Decimal) error {
	const query = `UPDATE products SET stock = $2, total_value = $3, updated_at = NOW() WHERE id = $1`
	tag, err := t.tx.Exec(ctx, query, id, stock, db.DecimalToNumeric(totalValue))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) CountSales(ctx context.Context, productID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM sales WHERE product_id = $1`
	var n int64
	err := t.tx.QueryRow(ctx, query, productID).Scan(&n)
	return n, err
}

func (t *txRepo) Delete(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hd-motorparts/partsledger/internal/money"
	"github.com/hd-motorparts/partsledger/internal/shared"
)

type memoryRepo struct {
	products map[int64]Product
	saleRefs map[int64]int64
	nextID   int64
	usedSKUs map[string]int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]Product),
		saleRefs: make(map[int64]int64),
		usedSKUs: make(map[string]int64),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Product, error) {
	if p, ok := r.products[id]; ok {
		cp := p
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (t *memoryTx) Insert(ctx context.Context, p Product) (int64, error) {
	if p.SKU != "" {
		if _, dup := t.repo.usedSKUs[p.SKU]; dup {
			return 0, ErrSKUExists
		}
	}
	t.repo.nextID++
	p.ID = t.repo.nextID
	t.repo.products[p.ID] = p
	if p.SKU != "" {
		t.repo.usedSKUs[p.SKU] = p.ID
	}
	return p.ID, nil
}

func (t *memoryTx) Update(ctx context.Context, p Product) error {
	if _, ok := t.repo.products[p.ID]; !ok {
		return ErrNotFound
	}
	t.repo.products[p.ID] = p
	return nil
}

func (t *memoryTx) GetForUpdate(ctx context.Context, id int64) (*Product, error) {
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) SetStock(ctx context.Context, id int64, stock int64, totalValue decimal.Decimal) error {
	p, ok := t.repo.products[id]
	if !ok {
		return ErrNotFound
	}
	p.Stock = stock
	p.TotalValue = totalValue
	t.repo.products[id] = p
	return nil
}

func (t *memoryTx) CountSales(ctx context.Context, productID int64) (int64, error) {
	return t.repo.saleRefs[productID], nil
}

func (t *memoryTx) Delete(ctx context.Context, id int64) error {
	if _, ok := t.repo.products[id]; !ok {
		return ErrNotFound
	}
	delete(t.repo.products, id)
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var tester = shared.Actor{ID: 1, Name: "tester"}

func TestCreateDerivesPricing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductRequest{
		Name:      "Clutch kit",
		Category:  "Transmisión",
		Stock:     4,
		UnitPrice: dec("100000"),
		ProfitPct: dec("20"),
	}, tester)
	require.NoError(t, err)
	require.True(t, p.PriceWithVAT.Equal(dec("119000")), "price_with_vat = %s", p.PriceWithVAT)
	require.True(t, p.SalePrice.Equal(dec("142800")), "sale_price = %s", p.SalePrice)
	require.True(t, p.TotalValue.Equal(dec("400000")), "total_value = %s", p.TotalValue)
}

func TestCreateRejectsNegatives(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductRequest{Name: "x", Category: "c", Stock: -1, UnitPrice: dec("10")}, tester)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(ctx, CreateProductRequest{Name: "x", Category: "c", UnitPrice: dec("-1")}, tester)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateKeepsTotalValueInvariant(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductRequest{Name: "Brake pad", Category: "Frenos", Stock: 10, UnitPrice: dec("12500.5")}, tester)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, UpdateProductRequest{
		Name: "Brake pad", Category: "Frenos", Stock: 7, UnitPrice: dec("13000.25"), ProfitPct: dec("5"),
	}, tester)
	require.NoError(t, err)
	require.True(t, updated.TotalValue.Equal(money.MulInt(dec("13000.25"), 7)), "total_value = %s", updated.TotalValue)
}

func TestAdjustStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductRequest{Name: "Chain", Category: "Transmisión", Stock: 3, UnitPrice: dec("40000")}, tester)
	require.NoError(t, err)

	p, err = svc.AdjustStock(ctx, p.ID, -3, tester)
	require.NoError(t, err)
	require.EqualValues(t, 0, p.Stock)
	require.True(t, p.TotalValue.IsZero())

	_, err = svc.AdjustStock(ctx, p.ID, -1, tester)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.EqualValues(t, 0, insufficient.Available)
	require.EqualValues(t, 1, insufficient.Requested)
}

func TestDeleteRejectsReferencedProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateProductRequest{Name: "Oil filter", Category: "Motor", Stock: 1, UnitPrice: dec("9000")}, tester)
	require.NoError(t, err)

	repo.saleRefs[p.ID] = 2
	err = svc.Delete(ctx, p.ID, tester)
	require.ErrorIs(t, err, ErrProductReferenced)

	repo.saleRefs[p.ID] = 0
	require.NoError(t, svc.Delete(ctx, p.ID, tester))
	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicateSKU(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateProductRequest{SKU: "FLT-001", Name: "Filter A", Category: "Motor", UnitPrice: dec("1")}, tester)
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateProductRequest{SKU: "FLT-001", Name: "Filter B", Category: "Motor", UnitPrice: dec("1")}, tester)
	require.ErrorIs(t, err, ErrSKUExists)
}

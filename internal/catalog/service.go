package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hd-motorparts/partsledger/internal/money"
	"github.com/hd-motorparts/partsledger/internal/pricing"
	"github.com/hd-motorparts/partsledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
}

// CacheInvalidator is notified after every committed mutation so report
// caches can drop stale aggregates. Best-effort.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service coordinates product catalogue operations.
type Service struct {
	repo        RepositoryPort
	audit       shared.AuditSink
	invalidator CacheInvalidator
}

// NewService builds Service. audit and invalidator may be nil.
func NewService(repo RepositoryPort, audit shared.AuditSink, invalidator CacheInvalidator) *Service {
	return &Service{repo: repo, audit: audit, invalidator: invalidator}
}

// Derive recomputes the derived columns from stock, unit price and
// profit percentage. It is the single place the total-value invariant
// is written.
func Derive(p *Product) error {
	b, err := pricing.Quote(p.UnitPrice, p.ProfitPct, 1)
	if err != nil {
		return err
	}
	p.UnitPrice = b.UnitPrice
	p.PriceWithVAT = b.PriceWithVAT
	p.SalePrice = b.SaleUnitPrice
	p.TotalValue = money.MulInt(p.UnitPrice, p.Stock)
	return nil
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, req CreateProductRequest, actor shared.Actor) (*Product, error) {
	if req.Stock < 0 || money.IsNegative(req.UnitPrice) || money.IsNegative(req.ProfitPct) {
		return nil, ErrInvalidInput
	}
	product := Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Category:    req.Category,
		Brand:       req.Brand,
		Stock:       req.Stock,
		UnitPrice:   req.UnitPrice,
		ProfitPct:   req.ProfitPct,
		Description: req.Description,
	}
	if err := Derive(&product); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.Insert(ctx, product)
		if err != nil {
			return err
		}
		product.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.record(ctx, actor, "catalog:create", product.ID, map[string]any{
		"name": product.Name, "stock": product.Stock, "unit_price": product.UnitPrice.String(),
	})
	s.bump(ctx)
	return s.repo.Get(ctx, product.ID)
}

// Get retrieves a product by id.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns products matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	return s.repo.List(ctx, filter)
}

// Update replaces every editable field and recomputes derived columns.
func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest, actor shared.Actor) (*Product, error) {
	if req.Stock < 0 || money.IsNegative(req.UnitPrice) || money.IsNegative(req.ProfitPct) {
		return nil, ErrInvalidInput
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		existing.SKU = req.SKU
		existing.Name = req.Name
		existing.Category = req.Category
		existing.Brand = req.Brand
		existing.Stock = req.Stock
		existing.UnitPrice = req.UnitPrice
		existing.ProfitPct = req.ProfitPct
		existing.Description = req.Description
		if err := Derive(existing); err != nil {
			return err
		}
		return tx.Update(ctx, *existing)
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.record(ctx, actor, "catalog:update", id, map[string]any{
		"name": req.Name, "stock": req.Stock, "unit_price": req.UnitPrice.String(),
	})
	s.bump(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes a product with no sale history.
func (s *Service) Delete(ctx context.Context, id int64, actor shared.Actor) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetForUpdate(ctx, id); err != nil {
			return err
		}
		refs, err := tx.CountSales(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d sales", ErrProductReferenced, refs)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.record(ctx, actor, "catalog:delete", id, nil)
	s.bump(ctx)
	return nil
}

// AdjustStock applies a signed stock delta inside its own transaction.
// The sale ledger applies deltas through its own transaction instead;
// this entry point serves manual corrections.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64, actor shared.Actor) (*Product, error) {
	if delta == 0 {
		return nil, ErrInvalidInput
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return ApplyStockDelta(ctx, tx, id, delta)
	})
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	s.record(ctx, actor, "catalog:adjust_stock", id, map[string]any{"delta": delta})
	s.bump(ctx)
	return s.repo.Get(ctx, id)
}

// ApplyStockDelta moves a product's stock counter under the row lock
// held by tx and rewrites the derived total value. It is shared with
// the sale ledger so both mutate stock through the same rule.
func ApplyStockDelta(ctx context.Context, tx StockTx, id int64, delta int64) error {
	product, err := tx.GetForUpdate(ctx, id)
	if err != nil {
		return err
	}
	newStock := product.Stock + delta
	if newStock < 0 {
		return &InsufficientStockError{ProductID: id, Requested: -delta, Available: product.Stock}
	}
	total := money.MulInt(product.UnitPrice, newStock)
	return tx.SetStock(ctx, id, newStock, total)
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, productID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		Entity:    "product",
		EntityID:  strconv.FormatInt(productID, 10),
		Meta:      meta,
	})
}

func (s *Service) bump(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	_ = s.invalidator.Bump(ctx)
}

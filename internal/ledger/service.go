package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hd-motorparts/partsledger/internal/catalog"
	"github.com/hd-motorparts/partsledger/internal/pricing"
	"github.com/hd-motorparts/partsledger/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, Totals, error)
}

// CacheInvalidator is notified after every committed mutation so report
// caches can drop stale aggregates. Best-effort.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// IdempotencyGuard reserves request keys so a retried create cannot
// decrement stock twice. Satisfied by shared.IdempotencyStore.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates sale ledger operations.
type Service struct {
	repo        RepositoryPort
	audit       shared.AuditSink
	idempotency IdempotencyGuard
	invalidator CacheInvalidator
	clock       func() time.Time
}

// NewService builds Service. audit, idem and invalidator may be nil.
func NewService(repo RepositoryPort, audit shared.AuditSink, idem IdempotencyGuard, invalidator CacheInvalidator) *Service {
	return &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		invalidator: invalidator,
		clock:       func() time.Time { return time.Now() },
	}
}

// CreateSale validates stock, prices the sale and commits the sale row
// together with its stock decrement in one transaction.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest, seller shared.Actor) (*Sale, error) {
	if req.Quantity <= 0 {
		return nil, pricing.ErrInvalidQuantity
	}

	insertedKey := false
	if s.idempotency != nil && req.RequestKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, req.RequestKey, "ledger"); err != nil {
			return nil, err
		}
		insertedKey = true
	}

	now := s.clock()
	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		profitPct := pricing.ResolveProfitPct(req.ProfitOverride, product.ProfitPct)
		breakdown, err := pricing.Quote(product.UnitPrice, profitPct, req.Quantity)
		if err != nil {
			return err
		}

		if err := catalog.ApplyStockDelta(ctx, tx, product.ID, -req.Quantity); err != nil {
			return err
		}

		sale = Sale{
			Reference:     uuid.NewString(),
			Date:          now,
			Time:          now.Format("15:04:05"),
			ProductID:     product.ID,
			ProductName:   product.Name,
			Category:      product.Category,
			Quantity:      req.Quantity,
			UnitPrice:     breakdown.UnitPrice,
			VATUnit:       breakdown.VATUnit,
			PriceWithVAT:  breakdown.PriceWithVAT,
			ProfitPct:     profitPct,
			ProfitUnit:    breakdown.ProfitUnit,
			SaleUnitPrice: breakdown.SaleUnitPrice,
			Subtotal:      breakdown.Subtotal,
			VATTotal:      breakdown.VATTotal,
			ProfitTotal:   breakdown.ProfitTotal,
			Total:         breakdown.Total,
			SellerID:      seller.ID,
			SellerName:    seller.Name,
		}
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, req.RequestKey)
		}
		return nil, fmt.Errorf("create sale: %w", err)
	}

	s.record(ctx, seller, "ledger:create", sale.ID, map[string]any{
		"reference":  sale.Reference,
		"product_id": sale.ProductID,
		"product":    sale.ProductName,
		"quantity":   sale.Quantity,
		"total":      sale.Total.String(),
		"profit":     sale.ProfitTotal.String(),
	})
	s.bump(ctx)
	return &sale, nil
}

// EditSale repoints an existing sale, restoring stock to the original
// product and consuming it from the new one, then recomputes every
// derived field from the new product's current unit price. One
// transaction covers both stock moves and the sale update.
func (s *Service) EditSale(ctx context.Context, id int64, req EditSaleRequest, actor shared.Actor) (*Sale, error) {
	if req.Quantity <= 0 {
		return nil, pricing.ErrInvalidQuantity
	}

	var sale Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Lock product rows in ascending id order so two concurrent
		// edits touching the same pair cannot deadlock.
		if err := lockProducts(ctx, tx, existing.ProductID, req.ProductID); err != nil {
			return err
		}

		if err := catalog.ApplyStockDelta(ctx, tx, existing.ProductID, existing.Quantity); err != nil {
			return err
		}
		if err := catalog.ApplyStockDelta(ctx, tx, req.ProductID, -req.Quantity); err != nil {
			return err
		}

		product, err := tx.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}
		profitPct := pricing.ResolveProfitPct(req.ProfitOverride, product.ProfitPct)
		breakdown, err := pricing.Quote(product.UnitPrice, profitPct, req.Quantity)
		if err != nil {
			return err
		}

		sale = *existing
		sale.ProductID = product.ID
		sale.ProductName = product.Name
		sale.Category = product.Category
		sale.Quantity = req.Quantity
		sale.UnitPrice = breakdown.UnitPrice
		sale.VATUnit = breakdown.VATUnit
		sale.PriceWithVAT = breakdown.PriceWithVAT
		sale.ProfitPct = profitPct
		sale.ProfitUnit = breakdown.ProfitUnit
		sale.SaleUnitPrice = breakdown.SaleUnitPrice
		sale.Subtotal = breakdown.Subtotal
		sale.VATTotal = breakdown.VATTotal
		sale.ProfitTotal = breakdown.ProfitTotal
		sale.Total = breakdown.Total
		return tx.UpdateSale(ctx, sale)
	})
	if err != nil {
		return nil, fmt.Errorf("edit sale: %w", err)
	}

	s.record(ctx, actor, "ledger:edit", sale.ID, map[string]any{
		"product_id": sale.ProductID,
		"quantity":   sale.Quantity,
		"total":      sale.Total.String(),
	})
	s.bump(ctx)
	return &sale, nil
}

// DeleteSale removes a sale and restores the stock it had consumed.
func (s *Service) DeleteSale(ctx context.Context, id int64, actor shared.Actor) error {
	var productID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := catalog.ApplyStockDelta(ctx, tx, sale.ProductID, sale.Quantity); err != nil {
			return err
		}
		productID = sale.ProductID
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	s.record(ctx, actor, "ledger:delete", id, map[string]any{"product_id": productID})
	s.bump(ctx)
	return nil
}

// GetSale retrieves one sale.
func (s *Service) GetSale(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.Get(ctx, id)
}

// ListSales returns the filtered sale history with its running totals.
func (s *Service) ListSales(ctx context.Context, filter ListFilter) ([]Sale, Totals, error) {
	return s.repo.List(ctx, filter)
}

func lockProducts(ctx context.Context, tx TxRepository, a, b int64) error {
	if a > b {
		a, b = b, a
	}
	if _, err := tx.GetForUpdate(ctx, a); err != nil {
		return err
	}
	if a == b {
		return nil
	}
	_, err := tx.GetForUpdate(ctx, b)
	return err
}

func (s *Service) record(ctx context.Context, actor shared.Actor, action string, saleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		Entity:    "sale",
		EntityID:  strconv.FormatInt(saleID, 10),
		Meta:      meta,
	})
}

func (s *Service) bump(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	_ = s.invalidator.Bump(ctx)
}

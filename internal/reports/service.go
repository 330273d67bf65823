package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hd-motorparts/partsledger/internal/money"
)

// RepositoryPort abstracts the aggregate queries for the service.
type RepositoryPort interface {
	InventoryStats(ctx context.Context, lowStockThreshold int64) (InventoryStats, error)
	SalesStats(ctx context.Context, dr DateRange) (SalesStats, error)
	TopProducts(ctx context.Context, dr DateRange, limit int) ([]TopProduct, error)
	CategoryTotals(ctx context.Context, dr DateRange) ([]CategoryTotal, error)
	DailySales(ctx context.Context, dr DateRange) ([]DailyBucket, error)
	MonthlySales(ctx context.Context, dr DateRange) ([]MonthlyBucket, error)
	LowStockProducts(ctx context.Context, threshold int64) ([]LowStockProduct, error)
	VATRows(ctx context.Context, year, month int) ([]VATRow, error)
	ProfitabilityRows(ctx context.Context, dr DateRange, sort string) ([]ProfitabilityRow, error)
	InventoryTotals(ctx context.Context) (InventoryTotals, error)
}

const topProductLimit = 5

// Service resolves reports through cache-aware lookups. cache may be
// nil, in which case every call hits the repository directly.
type Service struct {
	repo              RepositoryPort
	cache             *Cache
	lowStockThreshold int64
	clock             func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, cache *Cache, lowStockThreshold int64) *Service {
	return &Service{
		repo:              repo,
		cache:             cache,
		lowStockThreshold: lowStockThreshold,
		clock:             func() time.Time { return time.Now() },
	}
}

// Dashboard resolves the landing-page aggregate. The date range bounds
// the sale totals and rankings; the last-week series and the stock
// figures always reflect the present.
func (s *Service) Dashboard(ctx context.Context, dr DateRange) (DashboardMetrics, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		inv, err := s.repo.InventoryStats(ctx, s.lowStockThreshold)
		if err != nil {
			return DashboardMetrics{}, err
		}
		sales, err := s.repo.SalesStats(ctx, dr)
		if err != nil {
			return DashboardMetrics{}, err
		}
		top, err := s.repo.TopProducts(ctx, dr, topProductLimit)
		if err != nil {
			return DashboardMetrics{}, err
		}
		categories, err := s.repo.CategoryTotals(ctx, dr)
		if err != nil {
			return DashboardMetrics{}, err
		}
		today := s.clock().Truncate(24 * time.Hour)
		lastWeek, err := s.repo.DailySales(ctx, DateRange{From: today.AddDate(0, 0, -6), To: today})
		if err != nil {
			return DashboardMetrics{}, err
		}
		critical, err := s.repo.LowStockProducts(ctx, s.lowStockThreshold)
		if err != nil {
			return DashboardMetrics{}, err
		}
		return DashboardMetrics{
			ProductCount:   inv.ProductCount,
			InventoryValue: inv.InventoryValue,
			LowStockCount:  inv.LowStockCount,
			SalesCount:     sales.SalesCount,
			Revenue:        sales.Revenue,
			TopProducts:    top,
			Categories:     categories,
			LastWeek:       lastWeek,
			Critical:       critical,
		}, nil
	}

	var metrics DashboardMetrics
	if err := s.resolve(ctx, keyDashboard(dr), &metrics, loader); err != nil {
		return DashboardMetrics{}, err
	}
	return metrics, nil
}

// VAT groups sales by year-month; zero year or month leaves that
// dimension unfiltered.
func (s *Service) VAT(ctx context.Context, year, month int) (VATReport, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.VATRows(ctx, year, month)
		if err != nil {
			return VATReport{}, err
		}
		report := VATReport{
			Rows:      rows,
			TotalSold: money.Zero,
			VATTotal:  money.Zero,
		}
		for _, row := range rows {
			report.NumSales += row.NumSales
			report.TotalSold = report.TotalSold.Add(row.TotalSold)
			report.VATTotal = report.VATTotal.Add(row.VATTotal)
		}
		return report, nil
	}

	var report VATReport
	if err := s.resolve(ctx, keyVAT(year, month), &report, loader); err != nil {
		return VATReport{}, err
	}
	return report, nil
}

// Profitability groups profit per product, sorted by profit unless the
// quantity key is requested.
func (s *Service) Profitability(ctx context.Context, dr DateRange, sort string) ([]ProfitabilityRow, error) {
	if sort != SortByQuantity {
		sort = SortByProfit
	}
	loader := func(ctx context.Context) (interface{}, error) {
		rows, err := s.repo.ProfitabilityRows(ctx, dr, sort)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].MarginPct = marginPct(rows[i].ProfitTotal, rows[i].TotalSold)
		}
		return rows, nil
	}

	var rows []ProfitabilityRow
	if err := s.resolve(ctx, keyProfitability(dr, sort), &rows, loader); err != nil {
		return nil, err
	}
	return rows, nil
}

// SalesByPeriod buckets sales per day and per month.
func (s *Service) SalesByPeriod(ctx context.Context, dr DateRange) (PeriodReport, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		daily, err := s.repo.DailySales(ctx, dr)
		if err != nil {
			return PeriodReport{}, err
		}
		monthly, err := s.repo.MonthlySales(ctx, dr)
		if err != nil {
			return PeriodReport{}, err
		}
		return PeriodReport{Daily: daily, Monthly: monthly}, nil
	}

	var report PeriodReport
	if err := s.resolve(ctx, keyPeriod(dr), &report, loader); err != nil {
		return PeriodReport{}, err
	}
	return report, nil
}

// Inventory summarises the whole catalogue.
func (s *Service) Inventory(ctx context.Context) (InventoryTotals, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		return s.repo.InventoryTotals(ctx)
	}

	var totals InventoryTotals
	if err := s.resolve(ctx, keyInventory(), &totals, loader); err != nil {
		return InventoryTotals{}, err
	}
	return totals, nil
}

func (s *Service) resolve(ctx context.Context, keyBase string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	key, err := s.cache.BuildKey(ctx, keyBase)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func marginPct(profit, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return money.Zero
	}
	return money.Round3(profit.Div(total).Mul(decimal.NewFromInt(100)))
}

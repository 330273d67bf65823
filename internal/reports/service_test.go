package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type mockRepo struct {
	inv            InventoryStats
	invCalls       int
	sales          SalesStats
	salesCalls     int
	top            []TopProduct
	categories     []CategoryTotal
	daily          []DailyBucket
	monthly        []MonthlyBucket
	lowStock       []LowStockProduct
	vatRows        []VATRow
	vatCalls       int
	profitRows     []ProfitabilityRow
	profitCalls    int
	inventory      InventoryTotals
	inventoryCalls int
}

func (m *mockRepo) InventoryStats(ctx context.Context, threshold int64) (InventoryStats, error) {
	m.invCalls++
	return m.inv, nil
}

func (m *mockRepo) SalesStats(ctx context.Context, dr DateRange) (SalesStats, error) {
	m.salesCalls++
	return m.sales, nil
}

func (m *mockRepo) TopProducts(ctx context.Context, dr DateRange, limit int) ([]TopProduct, error) {
	return m.top, nil
}

func (m *mockRepo) CategoryTotals(ctx context.Context, dr DateRange) ([]CategoryTotal, error) {
	return m.categories, nil
}

func (m *mockRepo) DailySales(ctx context.Context, dr DateRange) ([]DailyBucket, error) {
	return m.daily, nil
}

func (m *mockRepo) MonthlySales(ctx context.Context, dr DateRange) ([]MonthlyBucket, error) {
	return m.monthly, nil
}

func (m *mockRepo) LowStockProducts(ctx context.Context, threshold int64) ([]LowStockProduct, error) {
	return m.lowStock, nil
}

func (m *mockRepo) VATRows(ctx context.Context, year, month int) ([]VATRow, error) {
	m.vatCalls++
	return m.vatRows, nil
}

func (m *mockRepo) ProfitabilityRows(ctx context.Context, dr DateRange, sort string) ([]ProfitabilityRow, error) {
	m.profitCalls++
	return m.profitRows, nil
}

func (m *mockRepo) InventoryTotals(ctx context.Context) (InventoryTotals, error) {
	m.inventoryCalls++
	return m.inventory, nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache, 5)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDashboardCachesAndBumps(t *testing.T) {
	repo := &mockRepo{
		inv:   InventoryStats{ProductCount: 12, InventoryValue: d("3500000"), LowStockCount: 2},
		sales: SalesStats{SalesCount: 4, Revenue: d("571200")},
		top: []TopProduct{
			{ProductID: 1, ProductName: "Clutch kit", Quantity: 3, Revenue: d("428400")},
		},
		lowStock: []LowStockProduct{{ProductID: 9, Name: "Fork seal", Stock: 1}},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	metrics, err := svc.Dashboard(ctx, DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.ProductCount != 12 || !metrics.Revenue.Equal(d("571200")) {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if len(metrics.Critical) != 1 || metrics.Critical[0].ProductID != 9 {
		t.Fatalf("expected critical product list, got %+v", metrics.Critical)
	}
	if repo.invCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.invCalls)
	}

	// Second call should hit cache.
	again, err := svc.Dashboard(ctx, DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.invCalls != 1 {
		t.Fatalf("expected cached dashboard, repo called %d times", repo.invCalls)
	}
	if again.SalesCount != metrics.SalesCount || !again.InventoryValue.Equal(metrics.InventoryValue) {
		t.Fatalf("cached dashboard diverged: %+v vs %+v", again, metrics)
	}

	// Bumping the cache should trigger reload.
	if err := svc.cache.Bump(ctx); err != nil {
		t.Fatalf("bump failed: %v", err)
	}
	repo.sales.SalesCount = 5
	metrics, err = svc.Dashboard(ctx, DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if metrics.SalesCount != 5 {
		t.Fatalf("expected refreshed sales count 5, got %d", metrics.SalesCount)
	}
	if repo.invCalls != 2 {
		t.Fatalf("expected repo to refresh, calls %d", repo.invCalls)
	}
}

func TestDashboardEmptyLedger(t *testing.T) {
	repo := &mockRepo{
		inv:   InventoryStats{InventoryValue: decimal.Zero},
		sales: SalesStats{Revenue: decimal.Zero},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	metrics, err := svc.Dashboard(context.Background(), DateRange{})
	if err != nil {
		t.Fatalf("empty ledger must not fail: %v", err)
	}
	if metrics.SalesCount != 0 || !metrics.Revenue.IsZero() {
		t.Fatalf("expected zeroed aggregates, got %+v", metrics)
	}
	if len(metrics.TopProducts) != 0 || len(metrics.LastWeek) != 0 {
		t.Fatalf("expected empty series, got %+v", metrics)
	}
}

func TestVATGrandTotals(t *testing.T) {
	repo := &mockRepo{
		vatRows: []VATRow{
			{Period: "2025-01", NumSales: 2, TotalSold: d("285600"), VATTotal: d("38000")},
			{Period: "2025-02", NumSales: 1, TotalSold: d("142800"), VATTotal: d("19000")},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.VAT(context.Background(), 2025, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.NumSales != 3 {
		t.Fatalf("expected 3 sales, got %d", report.NumSales)
	}
	if !report.TotalSold.Equal(d("428400")) || !report.VATTotal.Equal(d("57000")) {
		t.Fatalf("unexpected grand totals: %+v", report)
	}
}

func TestProfitabilityMargin(t *testing.T) {
	repo := &mockRepo{
		profitRows: []ProfitabilityRow{
			{ProductID: 1, ProductName: "Clutch kit", TotalSold: d("428400"), ProfitTotal: d("71400")},
			{ProductID: 2, ProductName: "Giveaway sticker", TotalSold: decimal.Zero, ProfitTotal: decimal.Zero},
		},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	rows, err := svc.Profitability(context.Background(), DateRange{}, SortByProfit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].MarginPct.Equal(d("16.667")) {
		t.Fatalf("expected margin 16.667, got %s", rows[0].MarginPct)
	}
	if !rows[1].MarginPct.IsZero() {
		t.Fatalf("zero total must yield zero margin, got %s", rows[1].MarginPct)
	}
}

func TestSalesByPeriodAndInventory(t *testing.T) {
	repo := &mockRepo{
		daily: []DailyBucket{
			{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), NumSales: 2, Quantity: 4, Revenue: d("571200")},
		},
		monthly: []MonthlyBucket{
			{Month: "2025-03", NumSales: 2, Quantity: 4, Revenue: d("571200")},
		},
		inventory: InventoryTotals{ProductCount: 10, UnitCount: 134, StockValue: d("4200000")},
	}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	ctx := context.Background()
	report, err := svc.SalesByPeriod(ctx, DateRange{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Daily) != 1 || len(report.Monthly) != 1 {
		t.Fatalf("unexpected buckets: %+v", report)
	}

	totals, err := svc.Inventory(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.UnitCount != 134 || !totals.StockValue.Equal(d("4200000")) {
		t.Fatalf("unexpected inventory totals: %+v", totals)
	}
	if repo.inventoryCalls != 1 {
		t.Fatalf("expected 1 repo call, got %d", repo.inventoryCalls)
	}
}

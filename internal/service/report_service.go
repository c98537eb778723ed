package service

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var reportTracer = otel.Tracer("stockledger/reports")

const (
	dashboardRecentLimit = 5
	supplierRecentLimit  = 5
	dayLayout            = "2006-01-02"
)

// ReportSettings are the defaults of the stock report's top selling section.
type ReportSettings struct {
	TopSellingWindowDays int
	TopSellingLimit      int
}

type ActiveCounts struct {
	Products   int64 `json:"products"`
	Suppliers  int64 `json:"suppliers"`
	Categories int64 `json:"categories"`
}

type TopSellingProduct struct {
	ProductID     uuid.UUID      `json:"product_id"`
	TotalQuantity int64          `json:"total_quantity"`
	Product       *model.Product `json:"product,omitempty"`
}

type SupplierSummary struct {
	Supplier           model.Supplier           `json:"supplier"`
	Products           []model.Product          `json:"products"`
	ProductCount       int                      `json:"product_count"`
	TotalValue         decimal.Decimal          `json:"total_value"`
	RecentTransactions []model.StockTransaction `json:"recent_transactions"`
}

type CategorySummary struct {
	Category     model.Category  `json:"category"`
	Products     []model.Product `json:"products"`
	ProductCount int             `json:"product_count"`
}

// StockMovementDay is one bar of the inbound/outbound chart.
type StockMovementDay struct {
	Date     string `json:"date"`
	Inbound  int64  `json:"inbound"`
	Outbound int64  `json:"outbound"`
}

type Dashboard struct {
	TotalProducts       int64                    `json:"total_products"`
	TotalSuppliers      int64                    `json:"total_suppliers"`
	TotalCategories     int64                    `json:"total_categories"`
	LowStockProducts    []model.Product          `json:"low_stock_products"`
	LowStockCount       int                      `json:"low_stock_count"`
	TotalInventoryValue decimal.Decimal          `json:"total_inventory_value"`
	Categories          []model.CategoryCount    `json:"categories"`
	RecentTransactions  []model.StockTransaction `json:"recent_transactions"`
	RecentSuppliers     []model.Supplier         `json:"recent_suppliers"`
	GeneratedAt         time.Time                `json:"generated_at"`
}

type StockReport struct {
	Products      []model.Product     `json:"products"`
	TotalProducts int                 `json:"total_products"`
	TotalValue    decimal.Decimal     `json:"total_value"`
	LowStock      []model.Product     `json:"low_stock_products"`
	LowStockCount int                 `json:"low_stock_count"`
	TopSelling    []TopSellingProduct `json:"top_selling"`
	WindowDays    int                 `json:"window_days"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

type ReportService interface {
	ActiveCounts(ctx context.Context) (*ActiveCounts, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	TotalInventoryValue(ctx context.Context) (decimal.Decimal, error)
	CategoryRollup(ctx context.Context) ([]model.CategoryCount, error)
	SupplierRollup(ctx context.Context, supplierID uuid.UUID) (*SupplierSummary, error)
	CategorySummary(ctx context.Context, categoryID uuid.UUID) (*CategorySummary, error)
	RecentTransactions(ctx context.Context, n int) ([]model.StockTransaction, error)
	TopSelling(ctx context.Context, windowDays, limit int) ([]TopSellingProduct, error)
	RecentSuppliers(ctx context.Context, n int) ([]model.Supplier, error)
	RecentCategories(ctx context.Context, n int) ([]model.Category, error)
	RecentProducts(ctx context.Context, n int) ([]model.Product, error)
	StockMovement(ctx context.Context, days int) ([]StockMovementDay, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
	StockReport(ctx context.Context) (*StockReport, error)
}

type reportService struct {
	productRepo     repository.ProductRepository
	categoryRepo    repository.CategoryRepository
	supplierRepo    repository.SupplierRepository
	transactionRepo repository.TransactionRepository
	settings        ReportSettings
	deps
}

func NewReportService(
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	sRepo repository.SupplierRepository,
	tRepo repository.TransactionRepository,
	settings ReportSettings,
	opts ...Option,
) ReportService {
	if settings.TopSellingWindowDays <= 0 {
		settings.TopSellingWindowDays = 30
	}
	if settings.TopSellingLimit <= 0 {
		settings.TopSellingLimit = 5
	}
	return &reportService{
		productRepo:     pRepo,
		categoryRepo:    cRepo,
		supplierRepo:    sRepo,
		transactionRepo: tRepo,
		settings:        settings,
		deps:            newDeps(opts),
	}
}

func (s *reportService) ActiveCounts(ctx context.Context) (*ActiveCounts, error) {
	var (
		counts ActiveCounts
		err    error
	)
	if counts.Products, err = s.productRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	if counts.Suppliers, err = s.supplierRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	if counts.Categories, err = s.categoryRepo.CountActive(ctx); err != nil {
		return nil, err
	}
	return &counts, nil
}

func (s *reportService) LowStock(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.LowStock(ctx)
}

func (s *reportService) TotalInventoryValue(ctx context.Context) (decimal.Decimal, error) {
	products, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return decimal.Zero, err
	}
	return totalValue(products), nil
}

func totalValue(products []model.Product) decimal.Decimal {
	total := decimal.Zero
	for i := range products {
		if products[i].Active {
			total = total.Add(products[i].Value())
		}
	}
	return total
}

func (s *reportService) CategoryRollup(ctx context.Context) ([]model.CategoryCount, error) {
	return s.categoryRepo.Rollup(ctx)
}

func (s *reportService) SupplierRollup(ctx context.Context, supplierID uuid.UUID) (*SupplierSummary, error) {
	supplier, err := s.supplierRepo.FindActiveByID(ctx, supplierID)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}

	products, err := s.productRepo.List(ctx, repository.ProductFilter{SupplierID: &supplier.ID})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	recent, err := s.transactionRepo.RecentForProducts(ctx, ids, supplierRecentLimit)
	if err != nil {
		return nil, err
	}

	return &SupplierSummary{
		Supplier:           *supplier,
		Products:           products,
		ProductCount:       len(products),
		TotalValue:         totalValue(products),
		RecentTransactions: recent,
	}, nil
}

func (s *reportService) CategorySummary(ctx context.Context, categoryID uuid.UUID) (*CategorySummary, error) {
	category, err := s.categoryRepo.FindActiveByID(ctx, categoryID)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}

	products, err := s.productRepo.List(ctx, repository.ProductFilter{CategoryID: &category.ID})
	if err != nil {
		return nil, err
	}
	return &CategorySummary{
		Category:     *category,
		Products:     products,
		ProductCount: len(products),
	}, nil
}

func (s *reportService) RecentTransactions(ctx context.Context, n int) ([]model.StockTransaction, error) {
	if n <= 0 {
		return []model.StockTransaction{}, nil
	}
	return s.transactionRepo.Recent(ctx, n)
}

// TopSelling ranks products by units shipped out within the trailing window.
// Products deactivated since keep their place: the journal is history.
func (s *reportService) TopSelling(ctx context.Context, windowDays, limit int) ([]TopSellingProduct, error) {
	if windowDays <= 0 || limit <= 0 {
		return nil, fmt.Errorf("%w: window days and limit must be positive", ErrValidation)
	}
	ctx, span := reportTracer.Start(ctx, "reports.TopSelling")
	defer span.End()
	span.SetAttributes(attribute.Int("window.days", windowDays), attribute.Int("limit", limit))

	since := s.now().AddDate(0, 0, -windowDays)
	rows, err := s.transactionRepo.TopSelling(ctx, since, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ProductID
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	result := make([]TopSellingProduct, len(rows))
	for i, row := range rows {
		result[i] = TopSellingProduct{
			ProductID:     row.ProductID,
			TotalQuantity: row.TotalQuantity,
			Product:       byID[row.ProductID],
		}
	}
	return result, nil
}

func (s *reportService) RecentSuppliers(ctx context.Context, n int) ([]model.Supplier, error) {
	if n <= 0 {
		return []model.Supplier{}, nil
	}
	return s.supplierRepo.Recent(ctx, n)
}

func (s *reportService) RecentCategories(ctx context.Context, n int) ([]model.Category, error) {
	if n <= 0 {
		return []model.Category{}, nil
	}
	return s.categoryRepo.Recent(ctx, n)
}

func (s *reportService) RecentProducts(ctx context.Context, n int) ([]model.Product, error) {
	if n <= 0 {
		return []model.Product{}, nil
	}
	return s.productRepo.Recent(ctx, n)
}

// StockMovement buckets the journal of the last days calendar days (UTC, today included)
// into per-day inbound and outbound totals. Days without movement are reported as zero.
func (s *reportService) StockMovement(ctx context.Context, days int) ([]StockMovementDay, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrValidation)
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	transactions, err := s.transactionRepo.FindSince(ctx, start)
	if err != nil {
		return nil, err
	}

	result := make([]StockMovementDay, days)
	index := make(map[string]int, days)
	for i := range result {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		result[i].Date = d
		index[d] = i
	}
	for _, t := range transactions {
		i, ok := index[t.CreatedAt.UTC().Format(dayLayout)]
		if !ok {
			continue
		}
		if t.Type == model.TxIn {
			result[i].Inbound += int64(t.Quantity)
		} else {
			result[i].Outbound += int64(t.Quantity)
		}
	}
	return result, nil
}

// Dashboard is served from the cache when one is configured; ledger and catalog writes drop it.
func (s *reportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := reportTracer.Start(ctx, "reports.Dashboard")
	defer span.End()

	var gen string
	if s.cacheEnabled() {
		gen = s.dashboardGeneration(ctx)
		var cached cachedDashboard
		hit, err := s.cache.Get(ctx, DashboardCacheKey, &cached)
		if err != nil {
			logWarn(ctx, err, "Failed to read cached dashboard")
		}
		if hit && cached.Generation == gen && cached.Dashboard != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			if s.reportMetrics != nil {
				s.reportMetrics.CacheHits.Inc()
			}
			return cached.Dashboard, nil
		}
		if s.reportMetrics != nil {
			s.reportMetrics.CacheMisses.Inc()
		}
	}

	d, err := s.buildDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		// Stamped with the generation read before building, so a write that commits meanwhile voids it.
		if err := s.cache.Set(ctx, DashboardCacheKey, cachedDashboard{Generation: gen, Dashboard: d}, s.cacheTTL); err != nil {
			logWarn(ctx, err, "Failed to cache dashboard")
		}
	}
	return d, nil
}

type cachedDashboard struct {
	Generation string     `json:"generation"`
	Dashboard  *Dashboard `json:"dashboard"`
}

func (s *reportService) buildDashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.ActiveCounts(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	value, err := s.TotalInventoryValue(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.CategoryRollup(ctx)
	if err != nil {
		return nil, err
	}
	transactions, err := s.RecentTransactions(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.RecentSuppliers(ctx, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalProducts:       counts.Products,
		TotalSuppliers:      counts.Suppliers,
		TotalCategories:     counts.Categories,
		LowStockProducts:    lowStock,
		LowStockCount:       len(lowStock),
		TotalInventoryValue: value,
		Categories:          categories,
		RecentTransactions:  transactions,
		RecentSuppliers:     suppliers,
		GeneratedAt:         s.now(),
	}, nil
}

func (s *reportService) StockReport(ctx context.Context) (*StockReport, error) {
	ctx, span := reportTracer.Start(ctx, "reports.StockReport")
	defer span.End()

	products, err := s.productRepo.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	lowStock, err := s.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.TopSelling(ctx, s.settings.TopSellingWindowDays, s.settings.TopSellingLimit)
	if err != nil {
		return nil, err
	}

	return &StockReport{
		Products:      products,
		TotalProducts: len(products),
		TotalValue:    totalValue(products),
		LowStock:      lowStock,
		LowStockCount: len(lowStock),
		TopSelling:    top,
		WindowDays:    s.settings.TopSellingWindowDays,
		GeneratedAt:   s.now(),
	}, nil
}

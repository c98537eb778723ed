package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"stockledger/internal/dbtest"
	"stockledger/internal/event"
	"stockledger/internal/model"
	"stockledger/internal/repository"
	"stockledger/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const actor = "0192b8a4-test-user"

// recordingPublisher keeps every event it is given.
type recordingPublisher struct {
	mu        sync.Mutex
	movements []event.StockMovementEvent
	catalog   []event.CatalogEvent
}

func (p *recordingPublisher) PublishStockMovement(_ context.Context, e event.StockMovementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.movements = append(p.movements, e)
	return nil
}

func (p *recordingPublisher) PublishCatalogChange(_ context.Context, e event.CatalogEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.catalog = append(p.catalog, e)
	return nil
}

func (p *recordingPublisher) Movements() []event.StockMovementEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.StockMovementEvent(nil), p.movements...)
}

func (p *recordingPublisher) Catalog() []event.CatalogEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.CatalogEvent(nil), p.catalog...)
}

type fixture struct {
	db  *gorm.DB
	pub *recordingPublisher

	mu  sync.Mutex
	now time.Time

	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	supplierRepo repository.SupplierRepository
	txRepo       repository.TransactionRepository

	ledger     service.LedgerService
	reports    service.ReportService
	products   service.ProductService
	categories service.CategoryService
	suppliers  service.SupplierService
}

func newFixture(t *testing.T, opts ...service.Option) *fixture {
	t.Helper()

	f := &fixture{
		db:  dbtest.Open(t),
		pub: &recordingPublisher{},
		now: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	f.productRepo = repository.NewProductRepo(f.db)
	f.categoryRepo = repository.NewCategoryRepo(f.db)
	f.supplierRepo = repository.NewSupplierRepo(f.db)
	f.txRepo = repository.NewTransactionRepo(f.db)

	all := append([]service.Option{
		service.WithPublisher(f.pub),
		service.WithClock(f.clock),
	}, opts...)

	f.ledger = service.NewLedgerService(f.db, f.productRepo, f.txRepo, all...)
	f.reports = service.NewReportService(f.productRepo, f.categoryRepo, f.supplierRepo, f.txRepo,
		service.ReportSettings{TopSellingWindowDays: 30, TopSellingLimit: 5}, all...)
	f.products = service.NewProductService(f.db, f.productRepo, f.categoryRepo, f.supplierRepo, f.txRepo, all...)
	f.categories = service.NewCategoryService(f.categoryRepo, all...)
	f.suppliers = service.NewSupplierService(f.db, f.supplierRepo, f.productRepo, all...)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

type productOpts struct {
	price      string
	stock      int
	reorder    *int
	categoryID *uuid.UUID
	supplierID *uuid.UUID
}

func (f *fixture) createProduct(t *testing.T, sku string, o productOpts) *model.Product {
	t.Helper()
	if o.price == "" {
		o.price = "1.00"
	}
	p, err := f.products.Create(context.Background(), service.CreateProductInput{
		ProductInput: service.ProductInput{
			Name:         "Product " + sku,
			SKU:          sku,
			Price:        decimal.NewNullDecimal(decimal.RequireFromString(o.price)),
			ReorderLevel: o.reorder,
			CategoryID:   o.categoryID,
			SupplierID:   o.supplierID,
		},
		StockQuantity: o.stock,
	}, actor)
	require.NoError(t, err)
	return p
}

func (f *fixture) createCategory(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), service.CategoryInput{Name: name}, actor)
	require.NoError(t, err)
	return c
}

func (f *fixture) createSupplier(t *testing.T, name string) *model.Supplier {
	t.Helper()
	s, err := f.suppliers.Create(context.Background(), service.SupplierInput{Name: name}, actor)
	require.NoError(t, err)
	return s
}

func (f *fixture) move(t *testing.T, productID uuid.UUID, typ model.TransactionType, qty int) *model.StockTransaction {
	t.Helper()
	entry, err := f.ledger.RecordMovement(context.Background(), service.MovementInput{
		ProductID: productID,
		Type:      typ,
		Quantity:  qty,
	}, actor)
	require.NoError(t, err)
	return entry
}

// stock reads the counter straight from the table, inactive rows included.
func (f *fixture) stock(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var p model.Product
	require.NoError(t, f.db.First(&p, "id = ?", productID).Error)
	return p.StockQuantity
}

func (f *fixture) countTransactions(t *testing.T, productID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.StockTransaction{}).Where("product_id = ?", productID).Count(&n).Error)
	return n
}

func intPtr(v int) *int { return &v }

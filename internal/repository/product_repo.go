package repository

import (
	"context"
	"strings"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows List. Zero values mean "no filter".
type ProductFilter struct {
	Search     string
	CategoryID *uuid.UUID
	SupplierID *uuid.UUID
}

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, updatedBy string) (bool, error)
	CurrentStock(ctx context.Context, id uuid.UUID) (int, error)
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
	CountActive(ctx context.Context) (int64, error)
	CountActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	Recent(ctx context.Context, limit int) ([]model.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

// ActiveProducts restricts a query on products to active rows.
func ActiveProducts(db *gorm.DB) *gorm.DB {
	return db.Where("products.active = ?", true)
}

// LowStockProducts is the one definition of "low stock": active and at or below the reorder level.
// Dashboard and stock report both go through it.
func LowStockProducts(db *gorm.DB) *gorm.DB {
	return ActiveProducts(db).Where("products.stock_quantity <= products.reorder_level")
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update writes the editable catalog fields. stock_quantity is not among them.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("name", "description", "sku", "price", "reorder_level", "category_id", "supplier_id", "updated_by", "updated_at").
		Updates(product).Error
}

func (r *productRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Scopes(ActiveProducts).
		Preload("Category").Preload("Supplier").
		First(&product, "products.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAll includes inactive products.
func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&products).Error
	return products, err
}

// FindByIDs loads products whatever their active state, for attaching detail to history.
func (r *productRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Supplier").
		Where("products.id IN ?", ids).
		Find(&products).Error
	return products, err
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product
	q := r.db.WithContext(ctx).Scopes(ActiveProducts).Preload("Category").Preload("Supplier")

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.sku) LIKE ?)", like, like)
	}
	if filter.CategoryID != nil {
		q = q.Where("products.category_id = ?", *filter.CategoryID)
	}
	if filter.SupplierID != nil {
		q = q.Where("products.supplier_id = ?", *filter.SupplierID)
	}

	err := q.Order("products.name ASC, products.id ASC").Find(&products).Error
	return products, err
}

// AdjustStock applies delta in a single conditional UPDATE, so two concurrent movements
// cannot both read the same stock. It reports false when the row was not updated because
// the product is gone, inactive, or the result would go negative.
func (r *productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int, updatedBy string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND active = ? AND stock_quantity + ? >= 0", id, true, delta).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_by":     updatedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) CurrentStock(ctx context.Context, id uuid.UUID) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Select("stock_quantity").
		Scan(&stock).Error
	return stock, err
}

func (r *productRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_by": updatedBy,
		}).Error
}

func (r *productRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(ActiveProducts).Count(&count).Error
	return count, err
}

func (r *productRepo) CountActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(ActiveProducts).
		Where("products.supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

func (r *productRepo) LowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Scopes(LowStockProducts).
		Preload("Category").Preload("Supplier").
		Order("products.name ASC, products.id ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Recent(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Scopes(ActiveProducts).
		Order("products.created_at DESC, products.id DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

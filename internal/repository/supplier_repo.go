package repository

import (
	"context"
	"strings"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplierWithCount is a supplier row plus its number of active products.
type SupplierWithCount struct {
	model.Supplier
	ProductCount int64 `json:"product_count"`
}

type SupplierRepository interface {
	WithTx(tx *gorm.DB) SupplierRepository
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, search string) ([]SupplierWithCount, error)
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
	CountActive(ctx context.Context) (int64, error)
	Recent(ctx context.Context, limit int) ([]model.Supplier, error)
}

type supplierRepo struct {
	db *gorm.DB
}

func NewSupplierRepo(db *gorm.DB) SupplierRepository {
	return &supplierRepo{db}
}

func (r *supplierRepo) WithTx(tx *gorm.DB) SupplierRepository {
	return &supplierRepo{tx}
}

func (r *supplierRepo) Create(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepo) Update(ctx context.Context, supplier *model.Supplier) error {
	return r.db.WithContext(ctx).Model(supplier).
		Select("name", "contact_person", "email", "phone", "address", "updated_by", "updated_at").
		Updates(supplier).Error
}

func (r *supplierRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, "id = ? AND active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepo) FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	q := r.db.WithContext(ctx).Where("name = ? AND active = ?", name, true)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// List returns active suppliers with their active product counts, optionally filtered by a
// case-insensitive search over name, contact person and email.
func (r *supplierRepo) List(ctx context.Context, search string) ([]SupplierWithCount, error) {
	var suppliers []model.Supplier
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}
	if err := q.Order("name ASC, id ASC").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return []SupplierWithCount{}, nil
	}

	ids := make([]uuid.UUID, len(suppliers))
	for i, s := range suppliers {
		ids[i] = s.ID
	}

	var counts []struct {
		SupplierID   uuid.UUID
		ProductCount int64
	}
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("supplier_id, COUNT(*) AS product_count").
		Where("supplier_id IN ? AND active = ?", ids, true).
		Group("supplier_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byID[c.SupplierID] = c.ProductCount
	}

	result := make([]SupplierWithCount, len(suppliers))
	for i, s := range suppliers {
		result[i] = SupplierWithCount{Supplier: s, ProductCount: byID[s.ID]}
	}
	return result, nil
}

func (r *supplierRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_by": updatedBy,
		}).Error
}

func (r *supplierRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Supplier{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (r *supplierRepo) Recent(ctx context.Context, limit int) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&suppliers).Error
	return suppliers, err
}

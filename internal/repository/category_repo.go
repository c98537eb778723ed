package repository

import (
	"context"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) error
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Category, error)
	Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error
	CountActive(ctx context.Context) (int64, error)
	Rollup(ctx context.Context) ([]model.CategoryCount, error)
	Recent(ctx context.Context, limit int) ([]model.Category, error)
}

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepo(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db}
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepo) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Model(category).
		Select("name", "description", "updated_by", "updated_at").
		Updates(category).Error
}

func (r *categoryRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ? AND active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindActiveByName looks for an active category with exactly this name, ignoring excludeID.
func (r *categoryRepo) FindActiveByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Category, error) {
	var category model.Category
	q := r.db.WithContext(ctx).Where("name = ? AND active = ?", name, true)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if err := q.First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Deactivate(ctx context.Context, id uuid.UUID, updatedBy string) error {
	return r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_by": updatedBy,
		}).Error
}

func (r *categoryRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// Rollup counts active products per active category. Categories without products report zero.
func (r *categoryRepo) Rollup(ctx context.Context) ([]model.CategoryCount, error) {
	var rows []model.CategoryCount
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Select("categories.id, categories.name, COUNT(products.id) AS product_count").
		Joins("LEFT JOIN products ON products.category_id = categories.id AND products.active = ?", true).
		Where("categories.active = ?", true).
		Group("categories.id, categories.name").
		Order("categories.name ASC, categories.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *categoryRepo) Recent(ctx context.Context, limit int) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&categories).Error
	return categories, err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockledger/internal/event"
	"stockledger/internal/model"
	"stockledger/internal/repository"
	"stockledger/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const openingStockNote = "Opening stock"

// ProductInput holds the editable catalog fields of a product.
type ProductInput struct {
	Name         string              `json:"name" validate:"required,max=100"`
	Description  string              `json:"description" validate:"max=2000"`
	SKU          string              `json:"sku" validate:"required,max=50"`
	Price        decimal.NullDecimal `json:"price" validate:"required,money"`
	ReorderLevel *int                `json:"reorder_level" validate:"omitempty,min=0"`
	CategoryID   *uuid.UUID          `json:"category_id"`
	SupplierID   *uuid.UUID          `json:"supplier_id"`
}

// CreateProductInput adds the opening stock, which is booked as an IN movement.
type CreateProductInput struct {
	ProductInput
	StockQuantity int `json:"stock_quantity" validate:"min=0"`
}

type ProductService interface {
	Create(ctx context.Context, in CreateProductInput, actor string) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput, actor string) (*model.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)
}

type productService struct {
	db              *gorm.DB
	productRepo     repository.ProductRepository
	categoryRepo    repository.CategoryRepository
	supplierRepo    repository.SupplierRepository
	transactionRepo repository.TransactionRepository
	deps
}

func NewProductService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	sRepo repository.SupplierRepository,
	tRepo repository.TransactionRepository,
	opts ...Option,
) ProductService {
	return &productService{
		db:              db,
		productRepo:     pRepo,
		categoryRepo:    cRepo,
		supplierRepo:    sRepo,
		transactionRepo: tRepo,
		deps:            newDeps(opts),
	}
}

func (s *productService) Create(ctx context.Context, in CreateProductInput, actor string) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if err := validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, in.SKU, nil); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in.CategoryID, in.SupplierID); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:          in.Name,
		Description:   in.Description,
		SKU:           in.SKU,
		Price:         in.Price.Decimal.Round(2),
		StockQuantity: in.StockQuantity,
		ReorderLevel:  model.DefaultReorderLevel,
		Active:        true,
		CategoryID:    in.CategoryID,
		SupplierID:    in.SupplierID,
	}
	if in.ReorderLevel != nil {
		product.ReorderLevel = *in.ReorderLevel
	}
	product.CreatedBy = actor
	product.UpdatedBy = actor

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(ctx, product); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateSKU
			}
			return err
		}
		if product.StockQuantity == 0 {
			return nil
		}
		opening := &model.StockTransaction{
			ProductID: product.ID,
			Type:      model.TxIn,
			Quantity:  product.StockQuantity,
			UnitPrice: decimal.NewNullDecimal(product.Price),
			Notes:     openingStockNote,
			CreatedBy: actor,
			CreatedAt: s.now(),
		}
		if err := s.transactionRepo.WithTx(tx).Create(ctx, opening); err != nil {
			return fmt.Errorf("failed to book opening stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "product", "created", event.CatalogEvent{EntityID: product.ID, Name: product.Name, Actor: actor})
	logger.Info(ctx).
		Str("product_id", product.ID.String()).
		Str("sku", product.SKU).
		Int("opening_stock", product.StockQuantity).
		Str("actor", actor).
		Msg("Product created")

	return s.Get(ctx, product.ID)
}

// Update changes catalog fields only. Stock moves through the ledger.
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput, actor string) (*model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if err := validate(&in); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	if in.SKU != product.SKU {
		if err := s.checkSKU(ctx, in.SKU, &product.ID); err != nil {
			return nil, err
		}
	}
	if err := s.checkReferences(ctx, in.CategoryID, in.SupplierID); err != nil {
		return nil, err
	}

	product.Name = in.Name
	product.Description = in.Description
	product.SKU = in.SKU
	product.Price = in.Price.Decimal.Round(2)
	if in.ReorderLevel != nil {
		product.ReorderLevel = *in.ReorderLevel
	}
	product.CategoryID = in.CategoryID
	product.SupplierID = in.SupplierID
	product.Category = nil
	product.Supplier = nil
	product.UpdatedBy = actor

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSKU
		}
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "product", "updated", event.CatalogEvent{EntityID: product.ID, Name: product.Name, Actor: actor})

	return s.Get(ctx, product.ID)
}

// Deactivate hides the product from the catalog and every report. Its journal stays.
func (s *productService) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		return notFound(err, ErrProductNotFound)
	}
	if err := s.productRepo.Deactivate(ctx, product.ID, actor); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "product", "deactivated", event.CatalogEvent{EntityID: product.ID, Name: product.Name, Actor: actor})
	logger.Info(ctx).Str("product_id", product.ID.String()).Str("actor", actor).Msg("Product deactivated")
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error) {
	return s.productRepo.List(ctx, filter)
}

// checkSKU fails when another product, active or not, already uses sku.
func (s *productService) checkSKU(ctx context.Context, sku string, self *uuid.UUID) error {
	existing, err := s.productRepo.FindBySKU(ctx, sku)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if self != nil && existing.ID == *self {
		return nil
	}
	return ErrDuplicateSKU
}

func (s *productService) checkReferences(ctx context.Context, categoryID, supplierID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.categoryRepo.FindActiveByID(ctx, *categoryID); err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
	}
	if supplierID != nil {
		if _, err := s.supplierRepo.FindActiveByID(ctx, *supplierID); err != nil {
			return notFound(err, ErrSupplierNotFound)
		}
	}
	return nil
}

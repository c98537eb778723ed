package service

import (
	"context"
	"errors"
	"strings"

	"stockledger/internal/event"
	"stockledger/internal/model"
	"stockledger/internal/repository"
	"stockledger/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=255"`
	Phone         string `json:"phone" validate:"max=20"`
	Address       string `json:"address" validate:"max=2000"`
}

type SupplierService interface {
	Create(ctx context.Context, in SupplierInput, actor string) (*model.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, in SupplierInput, actor string) (*model.Supplier, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) error
	List(ctx context.Context, search string) ([]repository.SupplierWithCount, error)
}

type supplierService struct {
	db           *gorm.DB
	supplierRepo repository.SupplierRepository
	productRepo  repository.ProductRepository
	deps
}

func NewSupplierService(db *gorm.DB, sRepo repository.SupplierRepository, pRepo repository.ProductRepository, opts ...Option) SupplierService {
	return &supplierService{
		db:           db,
		supplierRepo: sRepo,
		productRepo:  pRepo,
		deps:         newDeps(opts),
	}
}

func (s *supplierService) Create(ctx context.Context, in SupplierInput, actor string) (*model.Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, nil); err != nil {
		return nil, err
	}

	supplier := &model.Supplier{
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		Phone:         in.Phone,
		Address:       in.Address,
		Active:        true,
	}
	supplier.CreatedBy = actor
	supplier.UpdatedBy = actor
	if err := s.supplierRepo.Create(ctx, supplier); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "supplier", "created", event.CatalogEvent{EntityID: supplier.ID, Name: supplier.Name, Actor: actor})
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, id uuid.UUID, in SupplierInput, actor string) (*model.Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(&in); err != nil {
		return nil, err
	}

	supplier, err := s.supplierRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrSupplierNotFound)
	}
	if err := s.checkName(ctx, in.Name, &supplier.ID); err != nil {
		return nil, err
	}

	supplier.Name = in.Name
	supplier.ContactPerson = in.ContactPerson
	supplier.Email = in.Email
	supplier.Phone = in.Phone
	supplier.Address = in.Address
	supplier.UpdatedBy = actor
	if err := s.supplierRepo.Update(ctx, supplier); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "supplier", "updated", event.CatalogEvent{EntityID: supplier.ID, Name: supplier.Name, Actor: actor})
	return supplier, nil
}

// Deactivate refuses while any active product still references the supplier.
func (s *supplierService) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	var supplier *model.Supplier
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		suppliers := s.supplierRepo.WithTx(tx)

		var err error
		supplier, err = suppliers.FindActiveByID(ctx, id)
		if err != nil {
			return notFound(err, ErrSupplierNotFound)
		}

		count, err := s.productRepo.WithTx(tx).CountActiveBySupplier(ctx, supplier.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSupplierHasActiveProducts
		}
		return suppliers.Deactivate(ctx, supplier.ID, actor)
	})
	if err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "supplier", "deactivated", event.CatalogEvent{EntityID: supplier.ID, Name: supplier.Name, Actor: actor})
	logger.Info(ctx).Str("supplier_id", supplier.ID.String()).Str("actor", actor).Msg("Supplier deactivated")
	return nil
}

func (s *supplierService) List(ctx context.Context, search string) ([]repository.SupplierWithCount, error) {
	return s.supplierRepo.List(ctx, search)
}

func (s *supplierService) checkName(ctx context.Context, name string, self *uuid.UUID) error {
	_, err := s.supplierRepo.FindActiveByName(ctx, name, self)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrDuplicateName
}

package service

import (
	"context"
	"errors"
	"strings"

	"stockledger/internal/event"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type CategoryService interface {
	Create(ctx context.Context, in CategoryInput, actor string) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, in CategoryInput, actor string) (*model.Category, error)
	Deactivate(ctx context.Context, id uuid.UUID, actor string) error
	List(ctx context.Context) ([]model.CategoryCount, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	deps
}

func NewCategoryService(cRepo repository.CategoryRepository, opts ...Option) CategoryService {
	return &categoryService{categoryRepo: cRepo, deps: newDeps(opts)}
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput, actor string) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkName(ctx, in.Name, nil); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        in.Name,
		Description: in.Description,
		Active:      true,
	}
	category.CreatedBy = actor
	category.UpdatedBy = actor
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "category", "created", event.CatalogEvent{EntityID: category.ID, Name: category.Name, Actor: actor})
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, in CategoryInput, actor string) (*model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(&in); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.FindActiveByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	if err := s.checkName(ctx, in.Name, &category.ID); err != nil {
		return nil, err
	}

	category.Name = in.Name
	category.Description = in.Description
	category.UpdatedBy = actor
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "category", "updated", event.CatalogEvent{EntityID: category.ID, Name: category.Name, Actor: actor})
	return category, nil
}

// Deactivate leaves the category's products in place; they simply drop out of its rollup.
func (s *categoryService) Deactivate(ctx context.Context, id uuid.UUID, actor string) error {
	category, err := s.categoryRepo.FindActiveByID(ctx, id)
	if err != nil {
		return notFound(err, ErrCategoryNotFound)
	}
	if err := s.categoryRepo.Deactivate(ctx, category.ID, actor); err != nil {
		return err
	}

	s.invalidateDashboard(ctx)
	s.publishCatalog(ctx, "category", "deactivated", event.CatalogEvent{EntityID: category.ID, Name: category.Name, Actor: actor})
	return nil
}

func (s *categoryService) List(ctx context.Context) ([]model.CategoryCount, error) {
	return s.categoryRepo.Rollup(ctx)
}

func (s *categoryService) checkName(ctx context.Context, name string, self *uuid.UUID) error {
	_, err := s.categoryRepo.FindActiveByName(ctx, name, self)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrDuplicateName
}

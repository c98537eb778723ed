package service

import (
	"errors"
	"fmt"

	"stockledger/pkg/validator"

	"gorm.io/gorm"
)

var (
	ErrInvalidQuantity           = errors.New("quantity must be greater than zero")
	ErrInvalidTransactionType    = errors.New("transaction type must be IN or OUT")
	ErrInsufficientStock         = errors.New("insufficient stock available")
	ErrProductNotFound           = errors.New("product not found")
	ErrCategoryNotFound          = errors.New("category not found")
	ErrSupplierNotFound          = errors.New("supplier not found")
	ErrTransactionNotFound       = errors.New("transaction not found")
	ErrDuplicateName             = errors.New("an active record with this name already exists")
	ErrDuplicateSKU              = errors.New("SKU already exists")
	ErrSupplierHasActiveProducts = errors.New("cannot delete supplier with active products, reassign or delete the products first")
	ErrValidation                = errors.New("validation failed")
)

// validate runs struct validation and folds the failures into one ErrValidation.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, validator.Summary(errs))
	}
	return nil
}

// notFound translates a missing row into the domain error for that entity.
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn  TransactionType = "IN"
	TxOut TransactionType = "OUT"
)

// Valid reports whether t is one of the known movement types.
func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// Sign is +1 for IN and -1 for OUT.
func (t TransactionType) Sign() int {
	if t == TxOut {
		return -1
	}
	return 1
}

// ErrImmutableTransaction is returned by the gorm hooks when something tries to rewrite the journal.
var ErrImmutableTransaction = errors.New("stock transactions are immutable")

// StockTransaction is one append-only entry of the stock journal.
type StockTransaction struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product            `json:"product,omitempty"`
	Type      TransactionType     `gorm:"column:transaction_type;type:varchar(3);not null;index" json:"transaction_type"`
	Quantity  int                 `gorm:"not null" json:"quantity"`
	UnitPrice decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	Notes     string              `gorm:"type:text" json:"notes"`
	CreatedBy string              `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt time.Time           `gorm:"not null;index" json:"created_at"`
}

func (StockTransaction) TableName() string {
	return "stock_transactions"
}

// SignedQuantity is the quantity with the movement direction applied.
func (t *StockTransaction) SignedQuantity() int {
	return t.Type.Sign() * t.Quantity
}

func (t *StockTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (t *StockTransaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

func (t *StockTransaction) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableTransaction
}

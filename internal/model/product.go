package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultReorderLevel is used when a product is created without one.
const DefaultReorderLevel = 10

type Product struct {
	BaseModel
	Name          string          `gorm:"type:varchar(100);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	SKU           string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	ReorderLevel  int             `gorm:"not null" json:"reorder_level"`
	Active        bool            `gorm:"not null;default:true;index" json:"active"`

	// Weak references, cleared if the referenced row is ever removed
	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Supplier   *Supplier  `gorm:"constraint:OnDelete:SET NULL" json:"supplier,omitempty"`

	// Relasi
	Transactions []StockTransaction `gorm:"constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// IsLowStock is the single low stock predicate; the repository scope mirrors it in SQL.
func (p *Product) IsLowStock() bool {
	return p.Active && p.StockQuantity <= p.ReorderLevel
}

// Value is price * stock_quantity.
func (p *Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

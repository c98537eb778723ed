package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeStockMovement = "stock.movement"
	EventTypeCatalogChange = "catalog.change"
)

// StockMovementEvent is emitted after a ledger write has committed.
type StockMovementEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	TransactionID uuid.UUID `json:"transaction_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	SKU           string    `json:"sku"`
	Type          string    `json:"transaction_type"`
	Quantity      int       `json:"quantity"`
	NewStock      int       `json:"new_stock"`
	ReorderLevel  int       `json:"reorder_level"`
	Actor         string    `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
}

// LowStock reports whether the product crossed into the low stock set with this movement.
func (e StockMovementEvent) LowStock() bool {
	return e.NewStock <= e.ReorderLevel
}

// CatalogEvent is emitted when a product, category or supplier is created, updated or deactivated.
type CatalogEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	EntityID  uuid.UUID `json:"entity_id"`
	Name      string    `json:"name"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events to interested parties. Implementations must be safe for concurrent use.
type Publisher interface {
	PublishStockMovement(ctx context.Context, e StockMovementEvent) error
	PublishCatalogChange(ctx context.Context, e CatalogEvent) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishStockMovement(ctx context.Context, e StockMovementEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishStockMovement(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PublishCatalogChange(ctx context.Context, e CatalogEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishCatalogChange(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishStockMovement(context.Context, StockMovementEvent) error { return nil }
func (Nop) PublishCatalogChange(context.Context, CatalogEvent) error       { return nil }

func stamp(eventID *string, ts *time.Time) {
	if *eventID == "" {
		*eventID = uuid.NewString()
	}
	if ts.IsZero() {
		*ts = time.Now().UTC()
	}
}

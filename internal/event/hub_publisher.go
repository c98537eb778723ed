package event

import (
	"context"
	"encoding/json"
	"fmt"
)

// Broadcaster is the part of the websocket hub the publisher needs.
type Broadcaster interface {
	Publish(msg []byte) bool
}

// HubPublisher pushes events to connected websocket clients in the dashboard's message shape.
type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) PublishStockMovement(ctx context.Context, e StockMovementEvent) error {
	stamp(&e.EventID, &e.Timestamp)

	verb := "added"
	if e.Type == "OUT" {
		verb = "removed"
	}

	payload := map[string]interface{}{
		"type":   "stock_update",
		"action": "transaction_created",
		"transaction": map[string]interface{}{
			"id":         e.TransactionID,
			"type":       e.Type,
			"quantity":   e.Quantity,
			"product_id": e.ProductID,
			"product": map[string]interface{}{
				"name": e.ProductName,
				"sku":  e.SKU,
			},
			"new_stock": e.NewStock,
			"low_stock": e.LowStock(),
		},
		"user":    map[string]interface{}{"id": e.Actor},
		"message": fmt.Sprintf("%s %s %d units of '%s' (%s)", e.Actor, verb, e.Quantity, e.ProductName, e.Type),
	}
	return p.send(payload)
}

func (p *HubPublisher) PublishCatalogChange(ctx context.Context, e CatalogEvent) error {
	stamp(&e.EventID, &e.Timestamp)

	payload := map[string]interface{}{
		"type":   "catalog_update",
		"action": e.Entity + "_" + e.Action,
		e.Entity: map[string]interface{}{
			"id":   e.EntityID,
			"name": e.Name,
		},
		"user":    map[string]interface{}{"id": e.Actor},
		"message": fmt.Sprintf("%s %s %s '%s'", e.Actor, e.Action, e.Entity, e.Name),
	}
	return p.send(payload)
}

func (p *HubPublisher) send(payload map[string]interface{}) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ws payload: %w", err)
	}
	if !p.hub.Publish(msg) {
		return fmt.Errorf("ws broadcast queue full")
	}
	return nil
}

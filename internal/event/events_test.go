package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMovement() StockMovementEvent {
	return StockMovementEvent{
		TransactionID: uuid.New(),
		ProductID:     uuid.New(),
		ProductName:   "Widget",
		SKU:           "W-1",
		Type:          "OUT",
		Quantity:      3,
		NewStock:      2,
		ReorderLevel:  5,
		Actor:         "alice",
	}
}

func TestKafkaPublisher_StockMovement(t *testing.T) {
	e := sampleMovement()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "stock-events" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != e.ProductID.String() {
			return errors.New("message not keyed by product id")
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var got StockMovementEvent
		if err := json.Unmarshal(value, &got); err != nil {
			return err
		}
		if got.EventType != EventTypeStockMovement || got.EventID == "" || got.Timestamp.IsZero() {
			return errors.New("event was not stamped")
		}
		if got.Quantity != 3 || got.NewStock != 2 {
			return errors.New("payload mismatch")
		}

		for _, h := range msg.Headers {
			if string(h.Key) == "event_type" && string(h.Value) == EventTypeStockMovement {
				return nil
			}
		}
		return errors.New("missing event_type header")
	})

	pub := NewKafkaPublisherWithProducer(producer, "stock-events")
	require.NoError(t, pub.PublishStockMovement(context.Background(), e))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_CatalogChangeKeyedByEntity(t *testing.T) {
	id := uuid.New()

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, _ := msg.Key.Encode()
		if string(key) != id.String() {
			return errors.New("message not keyed by entity id")
		}
		return nil
	})

	pub := NewKafkaPublisherWithProducer(producer, "stock-events")
	err := pub.PublishCatalogChange(context.Background(), CatalogEvent{Entity: "supplier", Action: "created", EntityID: id, Name: "Acme"})
	require.NoError(t, err)
	require.NoError(t, pub.Close())
}

func TestKafkaPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisherWithProducer(producer, "stock-events")
	err := pub.PublishStockMovement(context.Background(), sampleMovement())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, pub.Close())
}

type fakeHub struct {
	full     bool
	messages [][]byte
}

func (h *fakeHub) Publish(msg []byte) bool {
	if h.full {
		return false
	}
	h.messages = append(h.messages, msg)
	return true
}

func TestHubPublisher_StockMovementPayload(t *testing.T) {
	hub := &fakeHub{}
	pub := NewHubPublisher(hub)
	e := sampleMovement()

	require.NoError(t, pub.PublishStockMovement(context.Background(), e))
	require.Len(t, hub.messages, 1)

	var payload struct {
		Type        string `json:"type"`
		Action      string `json:"action"`
		Message     string `json:"message"`
		Transaction struct {
			ProductID uuid.UUID `json:"product_id"`
			NewStock  int       `json:"new_stock"`
			LowStock  bool      `json:"low_stock"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(hub.messages[0], &payload))
	assert.Equal(t, "stock_update", payload.Type)
	assert.Equal(t, "transaction_created", payload.Action)
	assert.Equal(t, e.ProductID, payload.Transaction.ProductID)
	assert.Equal(t, 2, payload.Transaction.NewStock)
	assert.True(t, payload.Transaction.LowStock)
	assert.Equal(t, "alice removed 3 units of 'Widget' (OUT)", payload.Message)
}

func TestHubPublisher_CatalogPayload(t *testing.T) {
	hub := &fakeHub{}
	pub := NewHubPublisher(hub)

	err := pub.PublishCatalogChange(context.Background(), CatalogEvent{Entity: "category", Action: "updated", EntityID: uuid.New(), Name: "Tools", Actor: "bob"})
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(hub.messages[0], &payload))
	assert.Equal(t, "catalog_update", payload["type"])
	assert.Equal(t, "category_updated", payload["action"])
	assert.Contains(t, payload, "category")
}

func TestHubPublisher_QueueFull(t *testing.T) {
	pub := NewHubPublisher(&fakeHub{full: true})
	assert.Error(t, pub.PublishStockMovement(context.Background(), sampleMovement()))
}

type failingPublisher struct{ err error }

func (p failingPublisher) PublishStockMovement(context.Context, StockMovementEvent) error { return p.err }
func (p failingPublisher) PublishCatalogChange(context.Context, CatalogEvent) error       { return p.err }

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	first := errors.New("first down")
	hub := &fakeHub{}
	m := Multi{failingPublisher{first}, NewHubPublisher(hub), Nop{}}

	err := m.PublishStockMovement(context.Background(), sampleMovement())
	assert.ErrorIs(t, err, first)
	assert.Len(t, hub.messages, 1, "later publishers still run")

	ok := Multi{Nop{}, NewHubPublisher(hub)}
	assert.NoError(t, ok.PublishCatalogChange(context.Background(), CatalogEvent{Entity: "product", Action: "created"}))
	assert.Len(t, hub.messages, 2)
}

func TestStockMovementEvent_LowStock(t *testing.T) {
	e := StockMovementEvent{NewStock: 5, ReorderLevel: 5}
	assert.True(t, e.LowStock())
	e.NewStock = 6
	assert.False(t, e.LowStock())
}

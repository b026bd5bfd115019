// Package events publishes domain events to RabbitMQ after the unit of work
// that produced them has committed.
package events

import (
	"context"
	"time"

	"github.com/Lixing-Zhang/trattoria/backend/internal/models"
)

// OrderPlacedMessage is sent when a new order enters the ledger.
type OrderPlacedMessage struct {
	OrderID    string             `json:"order_id"`
	UserID     string             `json:"user_id"`
	Type       models.OrderType   `json:"type"`
	Status     models.OrderStatus `json:"status"`
	Items      int                `json:"items"`
	TotalPrice float64            `json:"total_price"`
	Timestamp  time.Time          `json:"timestamp"`
}

// StatusChangedMessage is sent after an order transition commits.
type StatusChangedMessage struct {
	OrderID   string             `json:"order_id"`
	From      models.OrderStatus `json:"from"`
	To        models.OrderStatus `json:"to"`
	Timestamp time.Time          `json:"timestamp"`
}

// AvailabilityChangedMessage is sent when a stock zero-crossing flipped the
// availability of at least one dish.
type AvailabilityChangedMessage struct {
	Product       string    `json:"product"`
	Available     bool      `json:"available"`
	DishesChanged int       `json:"dishes_changed"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher delivers domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, msg OrderPlacedMessage) error
	PublishStatusChanged(ctx context.Context, msg StatusChangedMessage) error
	PublishAvailabilityChanged(ctx context.Context, msg AvailabilityChangedMessage) error
	Close() error
}

// NewOrderPlaced builds the event for a freshly stored order.
func NewOrderPlaced(o models.Order) OrderPlacedMessage {
	items := 0
	for _, item := range o.Items {
		items += item.Quantity
	}
	return OrderPlacedMessage{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Type:       o.Type,
		Status:     o.Status,
		Items:      items,
		TotalPrice: o.TotalPrice,
		Timestamp:  o.CreatedAt,
	}
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderPlaced(context.Context, OrderPlacedMessage) error { return nil }

func (NoopPublisher) PublishStatusChanged(context.Context, StatusChangedMessage) error { return nil }

func (NoopPublisher) PublishAvailabilityChanged(context.Context, AvailabilityChangedMessage) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }

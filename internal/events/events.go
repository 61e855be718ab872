// Package events publishes order lifecycle messages to RabbitMQ.
package events

import (
	"context"
	"time"
)

// Exchange is the topic exchange carrying order lifecycle messages.
const Exchange = "freshcart.orders"

// Routing keys for order lifecycle messages.
const (
	RoutingKeyOrderPlaced        = "order.placed"
	RoutingKeyOrderStatusChanged = "order.status"
)

// OrderPlacedItem is one line of a placed-order message.
type OrderPlacedItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// OrderPlaced announces a new pending order.
type OrderPlaced struct {
	OrderID             string            `json:"order_id"`
	UserID              string            `json:"user_id"`
	StoreID             string            `json:"store_id"`
	SubtotalCents       int64             `json:"subtotal_cents"`
	Items               []OrderPlacedItem `json:"items"`
	EstimatedDeliveryAt time.Time         `json:"estimated_delivery_at"`
	PlacedAt            time.Time         `json:"placed_at"`
}

// OrderStatusChanged announces an order status transition.
type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	StoreID   string    `json:"store_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// Publisher emits order lifecycle messages. Implementations must be safe
// for concurrent use.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, msg OrderPlaced) error
	PublishOrderStatusChanged(ctx context.Context, msg OrderStatusChanged) error
	Close() error
}

// NopPublisher drops every message. Used when no broker is configured.
type NopPublisher struct{}

// PublishOrderPlaced implements Publisher.
func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlaced) error { return nil }

// PublishOrderStatusChanged implements Publisher.
func (NopPublisher) PublishOrderStatusChanged(context.Context, OrderStatusChanged) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

var _ Publisher = NopPublisher{}

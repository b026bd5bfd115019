package models

import (
	"slices"
	"time"
)

// OrderStatus is a lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCooking   OrderStatus = "cooking"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusSent      OrderStatus = "sent"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusCooking,
		OrderStatusReady,
		OrderStatusSent,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// Valid reports whether s is part of the status vocabulary.
func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses(), s)
}

// OrderType is how the order reaches the customer.
type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeLocal    OrderType = "local"
	OrderTypeTakeAway OrderType = "take_away"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDelivery, OrderTypeLocal, OrderTypeTakeAway:
		return true
	}
	return false
}

// PaymentMethod is how the order is paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentOnline PaymentMethod = "online"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline:
		return true
	}
	return false
}

// OrderItem is a snapshot of a dish taken at placement time. It never refers
// back to the live dish, so menu edits do not rewrite order history.
type OrderItem struct {
	Name        string           `json:"name" bson:"name"`
	Quantity    int              `json:"quantity" bson:"quantity"`
	Price       float64          `json:"price" bson:"price"`
	Ingredients []DishIngredient `json:"ingredients" bson:"ingredients"`
}

// StatusChange records one applied transition.
type StatusChange struct {
	From OrderStatus `json:"from,omitempty" bson:"from,omitempty"`
	To   OrderStatus `json:"to" bson:"to"`
	At   time.Time   `json:"at" bson:"at"`
}

// Order is a placed order in the ledger.
type Order struct {
	ID            string         `json:"id" bson:"_id"`
	UserID        string         `json:"userId" bson:"user_id"`
	Items         []OrderItem    `json:"items" bson:"items"`
	Type          OrderType      `json:"type" bson:"type"`
	Address       string         `json:"address,omitempty" bson:"address,omitempty"`
	PaymentMethod PaymentMethod  `json:"paymentMethod" bson:"payment_method"`
	TotalPrice    float64        `json:"totalPrice" bson:"total_price"`
	Status        OrderStatus    `json:"status" bson:"status"`
	History       []StatusChange `json:"history" bson:"history"`
	CreatedAt     time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updated_at"`
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	items := make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		item.Ingredients = CloneIngredients(item.Ingredients)
		items[i] = item
	}
	o.Items = items
	o.History = slices.Clone(o.History)
	return o
}

// OrderRequest represents an incoming checkout request.
type OrderRequest struct {
	UserID        string             `json:"userId"`
	Items         []OrderItemRequest `json:"items"`
	Type          OrderType          `json:"type"`
	Address       string             `json:"address,omitempty"`
	PaymentMethod PaymentMethod      `json:"paymentMethod"`
	TotalPrice    *float64           `json:"totalPrice,omitempty"`
}

// OrderItemRequest references a dish by name.
type OrderItemRequest struct {
	Dish     string `json:"dish"`
	Quantity int    `json:"quantity"`
}

// StatusRequest asks for a status transition. Expected, when set, must match
// the stored status or the transition is refused as a conflict.
type StatusRequest struct {
	Status   OrderStatus `json:"status"`
	Expected OrderStatus `json:"expected,omitempty"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the linear order lifecycle with two terminal alternates
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Order is immutable once created except for status, tracking and timestamps.
// Money fields satisfy total = subtotal + tax + shipping - discount.
type Order struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	OrderNumber       string      `json:"order_number" db:"order_number"`
	UserID            uuid.UUID   `json:"user_id" db:"user_id"`
	Status            OrderStatus `json:"status" db:"status"`
	Subtotal          float64     `json:"subtotal" db:"subtotal"`
	Tax               float64     `json:"tax" db:"tax"`
	Shipping          float64     `json:"shipping" db:"shipping"`
	Discount          float64     `json:"discount" db:"discount"`
	Total             float64     `json:"total" db:"total"`
	DiscountCode      *string     `json:"discount_code,omitempty" db:"discount_code"`
	ShippingAddressID uuid.UUID   `json:"shipping_address_id" db:"shipping_address_id"`
	BillingAddressID  uuid.UUID   `json:"billing_address_id" db:"billing_address_id"`
	CarrierID         *uuid.UUID  `json:"carrier_id,omitempty" db:"carrier_id"`
	TrackingNumber    *string     `json:"tracking_number,omitempty" db:"tracking_number"`
	ShippedAt         *time.Time  `json:"shipped_at,omitempty" db:"shipped_at"`
	DeliveredAt       *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
	Items             []OrderItem `json:"items,omitempty"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem snapshots the unit price at purchase time. Never mutated after
// creation; later catalog price changes must not alter historical totals.
type OrderItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"order_id" db:"order_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     float64   `json:"price" db:"price"`
	Total     float64   `json:"total" db:"total"`
	Position  int       `json:"position" db:"position"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Name             string         `json:"name" db:"name"`
	Slug             string         `json:"slug" db:"slug"`
	Description      string         `json:"description" db:"description"`
	ShortDescription string         `json:"short_description" db:"short_description"`
	Price            float64        `json:"price" db:"price"`
	SalePrice        *float64       `json:"sale_price,omitempty" db:"sale_price"`
	SKU              string         `json:"sku" db:"sku"`
	Barcode          string         `json:"barcode" db:"barcode"`
	CategoryID       uuid.UUID      `json:"category_id" db:"category_id"`
	SupplierID       *uuid.UUID     `json:"supplier_id,omitempty" db:"supplier_id"`
	IsActive         bool           `json:"is_active" db:"is_active"`
	Images           []ProductImage `json:"images,omitempty"`
	Inventory        *Inventory     `json:"inventory,omitempty"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
}

// EffectivePrice returns the sale price when set and lower than the base
// price, else the base price.
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice < p.Price {
		return *p.SalePrice
	}
	return p.Price
}

// ProductImage is one image of a product; at most one per product is primary
type ProductImage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	URL       string    `json:"url" db:"url"`
	Alt       string    `json:"alt" db:"alt"`
	IsPrimary bool      `json:"is_primary" db:"is_primary"`
	Position  int       `json:"position" db:"position"`
}

// Inventory tracks stock for a product, owned 1:1 by the product
type Inventory struct {
	ProductID         uuid.UUID `json:"product_id" db:"product_id"`
	Quantity          int       `json:"quantity" db:"quantity"`
	ReservedQuantity  int       `json:"reserved_quantity" db:"reserved_quantity"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Supplier provides products to the store
type Supplier struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Phone         string    `json:"phone" db:"phone"`
	Address       string    `json:"address" db:"address"`
	Website       string    `json:"website" db:"website"`
	ContactPerson string    `json:"contact_person" db:"contact_person"`
	Notes         string    `json:"notes" db:"notes"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Carrier ships orders; its configured cost feeds the order total
type Carrier struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Code          string    `json:"code" db:"code"`
	Website       string    `json:"website" db:"website"`
	TrackingURL   string    `json:"tracking_url" db:"tracking_url"`
	ShippingCost  float64   `json:"shipping_cost" db:"shipping_cost"`
	EstimatedDays int       `json:"estimated_days" db:"estimated_days"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

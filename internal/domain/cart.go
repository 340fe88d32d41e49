package domain

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a (user, product) pair with a quantity. At most one row per
// pair; ephemeral, cleared on checkout or explicit clear.
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Product   *Product  `json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Cart is the materialized view of a user's cart items against live prices
type Cart struct {
	Items     []*CartItem `json:"items"`
	Total     float64     `json:"total"`
	ItemCount int         `json:"item_count"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType distinguishes percentage from fixed-amount deductions
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFixed      DiscountType = "FIXED"
)

// Discount is a coupon code. Codes are stored uppercased; lookups normalize
// the input the same way.
type Discount struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Code           string       `json:"code" db:"code"`
	Description    string       `json:"description" db:"description"`
	Type           DiscountType `json:"type" db:"type"`
	Value          float64      `json:"value" db:"value"`
	MinOrderAmount *float64     `json:"min_order_amount,omitempty" db:"min_order_amount"`
	MaxUses        *int         `json:"max_uses,omitempty" db:"max_uses"`
	UsedCount      int          `json:"used_count" db:"used_count"`
	StartDate      time.Time    `json:"start_date" db:"start_date"`
	EndDate        time.Time    `json:"end_date" db:"end_date"`
	IsActive       bool         `json:"is_active" db:"is_active"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// Redeemable reports whether the discount can be applied at the given time:
// active, inside its validity window, and under its usage cap.
func (d *Discount) Redeemable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if now.Before(d.StartDate) || now.After(d.EndDate) {
		return false
	}
	if d.MaxUses != nil && d.UsedCount >= *d.MaxUses {
		return false
	}
	return true
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies which external backend handles a payment
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "STRIPE"
	PaymentMethodPayPal PaymentMethod = "PAYPAL"
	PaymentMethodKlarna PaymentMethod = "KLARNA"
)

// Valid reports whether m is one of the supported backends.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodStripe, PaymentMethodPayPal, PaymentMethodKlarna:
		return true
	}
	return false
}

// PaymentStatus models the only transition the coordinator performs:
// PENDING -> COMPLETED on explicit provider confirmation. A rejection or
// timeout leaves the row PENDING.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

// Payment is the local record of one provider-side payment attempt.
// ProviderRef carries the provider correlation id when one exists before
// confirmation (Stripe); for the other backends Metadata holds the serialized
// request payload instead.
type Payment struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	OrderID        uuid.UUID     `json:"order_id" db:"order_id"`
	Method         PaymentMethod `json:"method" db:"method"`
	Status         PaymentStatus `json:"status" db:"status"`
	Amount         float64       `json:"amount" db:"amount"`
	ProviderRef    *string       `json:"provider_ref,omitempty" db:"provider_ref"`
	TransactionID  *string       `json:"transaction_id,omitempty" db:"transaction_id"`
	IdempotencyKey *string       `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Metadata       *string       `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// NewsletterSubscriber tracks an email's subscription state. Unsubscribing
// deactivates the row; re-subscribing reactivates it.
type NewsletterSubscriber struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	SubscribedAt   time.Time  `json:"subscribed_at" db:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty" db:"unsubscribed_at"`
}

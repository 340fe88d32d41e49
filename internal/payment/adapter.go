package payment

import (
	"context"
	"errors"
	"math"

	"mercato/internal/domain"
)

var (
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrHandleNotFound    = errors.New("payment handle not found at provider")
)

// Handle is what a provider returns when a payment is initiated. Stripe
// populates ProviderRef and ClientSecret; the payload-building backends
// return only the request Payload the storefront forwards to the provider.
type Handle struct {
	ProviderRef  *string
	ClientSecret string
	Payload      map[string]any
}

// Outcome is the result of checking a payment with its provider.
type Outcome struct {
	Succeeded     bool
	TransactionID string
}

// Provider abstracts one external payment backend.
type Provider interface {
	Method() domain.PaymentMethod
	CreateHandle(ctx context.Context, order *domain.Order, shipping *domain.Address) (*Handle, error)
	ConfirmHandle(ctx context.Context, ref string) (*Outcome, error)
}

// Registry resolves providers by method.
type Registry struct {
	providers map[domain.PaymentMethod]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	m := make(map[domain.PaymentMethod]Provider, len(providers))
	for _, p := range providers {
		m[p.Method()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(method domain.PaymentMethod) (Provider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return p, nil
}

// minorUnits converts a decimal amount to integer cents.
func minorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

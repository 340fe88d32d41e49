package payment

import (
	"context"
	"fmt"
	"strings"

	"mercato/internal/config"
	"mercato/internal/domain"
)

// PayPalProvider builds the order-creation payload the storefront submits to
// PayPal. No provider-side id exists until the shopper approves the order, so
// confirmation trusts the capture id reported back by the storefront.
type PayPalProvider struct {
	cfg      config.PayPalConfig
	currency string
}

func NewPayPalProvider(cfg config.PayPalConfig, currency string) *PayPalProvider {
	return &PayPalProvider{cfg: cfg, currency: currency}
}

func (p *PayPalProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodPayPal
}

func (p *PayPalProvider) CreateHandle(_ context.Context, order *domain.Order, _ *domain.Address) (*Handle, error) {
	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"reference_id": order.OrderNumber,
				"amount": map[string]any{
					"currency_code": strings.ToUpper(p.currency),
					"value":         fmt.Sprintf("%.2f", order.Total),
				},
			},
		},
	}

	return &Handle{Payload: payload}, nil
}

func (p *PayPalProvider) ConfirmHandle(_ context.Context, ref string) (*Outcome, error) {
	if ref == "" {
		return nil, ErrHandleNotFound
	}
	return &Outcome{Succeeded: true, TransactionID: ref}, nil
}

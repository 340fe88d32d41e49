package payment

import (
	"context"
	"fmt"

	"mercato/internal/config"
	"mercato/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider creates real PaymentIntents and reads their status back.
type StripeProvider struct {
	api      *client.API
	currency string
}

func NewStripeProvider(cfg config.StripeConfig, currency string) *StripeProvider {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProvider{api: api, currency: currency}
}

func (p *StripeProvider) Method() domain.PaymentMethod {
	return domain.PaymentMethodStripe
}

func (p *StripeProvider) CreateHandle(ctx context.Context, order *domain.Order, _ *domain.Address) (*Handle, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(order.Total)),
		Currency: stripe.String(p.currency),
	}
	params.Context = ctx
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("order_number", order.OrderNumber)

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Handle{
		ProviderRef:  &intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (p *StripeProvider) ConfirmHandle(ctx context.Context, ref string) (*Outcome, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := p.api.PaymentIntents.Get(ref, params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok && stripeErr.HTTPStatusCode == 404 {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	return &Outcome{
		Succeeded:     intent.Status == stripe.PaymentIntentStatusSucceeded,
		TransactionID: intent.ID,
	}, nil
}

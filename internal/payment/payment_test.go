package payment

import (
	"context"
	"testing"

	"mercato/internal/config"
	"mercato/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func testOrder() *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1-ABCDEFGHI",
		Subtotal:    20.00,
		Tax:         4.40,
		Shipping:    5.00,
		Total:       29.40,
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), Quantity: 2, Price: 10.00, Total: 20.00},
		},
	}
}

func TestProperty_MinorUnitsRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cent amounts convert exactly to minor units", prop.ForAll(
		func(cents int) bool {
			return minorUnits(float64(cents)/100) == int64(cents)
		},
		gen.IntRange(0, 100_000_000),
	))

	properties.TestingRun(t)
}

func TestPayPalHandleCarriesCapturePayload(t *testing.T) {
	p := NewPayPalProvider(config.PayPalConfig{Mode: "sandbox"}, "eur")

	handle, err := p.CreateHandle(context.Background(), testOrder(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if handle.ProviderRef != nil {
		t.Errorf("paypal issues no ref before approval")
	}
	if handle.Payload["intent"] != "CAPTURE" {
		t.Errorf("expected CAPTURE intent, got %v", handle.Payload["intent"])
	}

	units, ok := handle.Payload["purchase_units"].([]map[string]any)
	if !ok || len(units) != 1 {
		t.Fatalf("expected a single purchase unit")
	}
	amount := units[0]["amount"].(map[string]any)
	if amount["currency_code"] != "EUR" {
		t.Errorf("expected EUR, got %v", amount["currency_code"])
	}
	if amount["value"] != "29.40" {
		t.Errorf("expected value 29.40, got %v", amount["value"])
	}
	if units[0]["reference_id"] != "ORD-1-ABCDEFGHI" {
		t.Errorf("expected order number as reference, got %v", units[0]["reference_id"])
	}
}

func TestKlarnaHandleUsesMinorUnitsAndShippingCountry(t *testing.T) {
	p := NewKlarnaProvider(config.KlarnaConfig{Locale: "it-IT"}, "eur")
	shipping := &domain.Address{Country: "de"}

	handle, err := p.CreateHandle(context.Background(), testOrder(), shipping)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if handle.Payload["purchase_country"] != "DE" {
		t.Errorf("expected purchase country DE, got %v", handle.Payload["purchase_country"])
	}
	if handle.Payload["order_amount"] != int64(2940) {
		t.Errorf("expected order amount 2940, got %v", handle.Payload["order_amount"])
	}
	if handle.Payload["order_tax_amount"] != int64(440) {
		t.Errorf("expected tax amount 440, got %v", handle.Payload["order_tax_amount"])
	}

	lines, ok := handle.Payload["order_lines"].([]map[string]any)
	if !ok || len(lines) != 2 {
		t.Fatalf("expected item line plus shipping line, got %v", handle.Payload["order_lines"])
	}
	if lines[0]["unit_price"] != int64(1000) {
		t.Errorf("expected unit price 1000, got %v", lines[0]["unit_price"])
	}
	if lines[1]["type"] != "shipping_fee" {
		t.Errorf("expected shipping line, got %v", lines[1]["type"])
	}
	if lines[1]["total_amount"] != int64(500) {
		t.Errorf("expected shipping 500, got %v", lines[1]["total_amount"])
	}
}

func TestKlarnaDefaultsPurchaseCountry(t *testing.T) {
	p := NewKlarnaProvider(config.KlarnaConfig{Locale: "it-IT"}, "eur")

	handle, err := p.CreateHandle(context.Background(), testOrder(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle.Payload["purchase_country"] != "IT" {
		t.Errorf("expected default purchase country IT, got %v", handle.Payload["purchase_country"])
	}
}

func TestRegistryResolvesByMethod(t *testing.T) {
	paypal := NewPayPalProvider(config.PayPalConfig{}, "eur")
	registry := NewRegistry(paypal)

	p, err := registry.Get(domain.PaymentMethodPayPal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Method() != domain.PaymentMethodPayPal {
		t.Errorf("wrong provider resolved")
	}

	if _, err := registry.Get(domain.PaymentMethodStripe); err != ErrUnsupportedMethod {
		t.Errorf("expected ErrUnsupportedMethod, got %v", err)
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mercato/internal/domain"
	"mercato/internal/payment"
	"mercato/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrPaymentAlreadyCompleted = errors.New("order already has a completed payment")
	ErrPaymentNotSucceeded     = errors.New("payment has not succeeded at provider")
)

// PaymentInitiation is what a payment initiation hands back to the client:
// the stored record plus whatever the provider needs the storefront to use.
type PaymentInitiation struct {
	Payment      *domain.Payment `json:"payment"`
	ClientSecret string          `json:"client_secret,omitempty"`
	Payload      map[string]any  `json:"payload,omitempty"`
}

// PaymentService coordinates the local payment records with the external
// providers. An order accepts at most one completed payment; a pending record
// only moves to COMPLETED on explicit provider confirmation.
type PaymentService interface {
	Initiate(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID, method domain.PaymentMethod, idempotencyKey string) (*PaymentInitiation, error)
	Confirm(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID, providerRef string) (*domain.Payment, error)
}

type paymentService struct {
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	addressRepo repository.AddressRepository
	providers   *payment.Registry
}

// NewPaymentService creates a new instance of PaymentService
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	addressRepo repository.AddressRepository,
	providers *payment.Registry,
) PaymentService {
	return &paymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		providers:   providers,
	}
}

// Initiate opens a payment attempt with the chosen provider and records it
// locally as PENDING. Replaying the same idempotency key returns the original
// record without touching the provider again.
func (s *paymentService) Initiate(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID, method domain.PaymentMethod, idempotencyKey string) (*PaymentInitiation, error) {
	order, err := s.loadOwnedOrder(ctx, userID, role, orderID)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, orderID, idempotencyKey)
		if err != nil && err != repository.ErrPaymentNotFound {
			return nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existing != nil {
			return s.initiationFromRecord(existing), nil
		}
	}

	completed, err := s.paymentRepo.HasCompletedForOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed payments: %w", err)
	}
	if completed {
		return nil, ErrPaymentAlreadyCompleted
	}

	provider, err := s.providers.Get(method)
	if err != nil {
		return nil, err
	}

	shipping, err := s.addressRepo.FindByID(ctx, order.ShippingAddressID)
	if err != nil && err != repository.ErrAddressNotFound {
		return nil, fmt.Errorf("failed to load shipping address: %w", err)
	}

	handle, err := provider.CreateHandle(ctx, order, shipping)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &domain.Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Method:    method,
		Status:    domain.PaymentStatusPending,
		Amount:    order.Total,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if handle.ProviderRef != nil {
		record.ProviderRef = handle.ProviderRef
	}
	if idempotencyKey != "" {
		record.IdempotencyKey = &idempotencyKey
	}
	if handle.Payload != nil {
		raw, err := json.Marshal(handle.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize provider payload: %w", err)
		}
		meta := string(raw)
		record.Metadata = &meta
	}

	if err := s.paymentRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store payment: %w", err)
	}

	return &PaymentInitiation{
		Payment:      record,
		ClientSecret: handle.ClientSecret,
		Payload:      handle.Payload,
	}, nil
}

// Confirm checks the payment with its provider and, on success, marks it
// COMPLETED and moves the order to PROCESSING in the same transaction.
// Confirming an already-completed payment is a no-op returning the record.
func (s *paymentService) Confirm(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID, providerRef string) (*domain.Payment, error) {
	if _, err := s.loadOwnedOrder(ctx, userID, role, orderID); err != nil {
		return nil, err
	}

	record, err := s.findRecord(ctx, orderID, providerRef)
	if err != nil {
		return nil, err
	}
	if record.Status == domain.PaymentStatusCompleted {
		return record, nil
	}

	provider, err := s.providers.Get(record.Method)
	if err != nil {
		return nil, err
	}

	ref := providerRef
	if record.ProviderRef != nil {
		ref = *record.ProviderRef
	}

	outcome, err := provider.ConfirmHandle(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !outcome.Succeeded {
		return nil, ErrPaymentNotSucceeded
	}

	if err := s.paymentRepo.Complete(ctx, record.ID, outcome.TransactionID); err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	record.Status = domain.PaymentStatusCompleted
	record.TransactionID = &outcome.TransactionID
	return record, nil
}

func (s *paymentService) loadOwnedOrder(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !isStaff(role) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// findRecord resolves the payment being confirmed: by provider reference when
// the provider issued one at initiation, else the latest attempt on the order.
func (s *paymentService) findRecord(ctx context.Context, orderID uuid.UUID, providerRef string) (*domain.Payment, error) {
	if providerRef != "" {
		record, err := s.paymentRepo.FindByProviderRef(ctx, providerRef)
		if err == nil {
			if record.OrderID != orderID {
				return nil, repository.ErrPaymentNotFound
			}
			return record, nil
		}
		if err != repository.ErrPaymentNotFound {
			return nil, fmt.Errorf("failed to find payment: %w", err)
		}
	}
	return s.paymentRepo.FindLatestByOrder(ctx, orderID)
}

func (s *paymentService) initiationFromRecord(record *domain.Payment) *PaymentInitiation {
	init := &PaymentInitiation{Payment: record}
	if record.Metadata != nil {
		var payload map[string]any
		if err := json.Unmarshal([]byte(*record.Metadata), &payload); err == nil {
			init.Payload = payload
		}
	}
	return init
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"mercato/internal/config"
	"mercato/internal/domain"
	"mercato/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderAccessDenied = errors.New("order does not belong to user")
	ErrInvalidStatus     = errors.New("invalid order status")
)

// CreateOrderInput carries the checkout request. The cart supplies the items;
// everything here is reference data the order snapshots.
type CreateOrderInput struct {
	ShippingAddressID uuid.UUID
	BillingAddressID  uuid.UUID
	CarrierID         *uuid.UUID
	DiscountCode      string
}

// UpdateOrderStatusInput carries a staff status change.
type UpdateOrderStatusInput struct {
	Status         domain.OrderStatus
	TrackingNumber *string
}

// OrderService assembles orders from carts and manages their lifecycle.
type OrderService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*domain.Order, error)
	Get(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, userID uuid.UUID, role string, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateOrderStatusInput) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	addressRepo repository.AddressRepository
	carrierRepo repository.CarrierRepository
	discountSvc DiscountService
	checkout    config.CheckoutConfig
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	addressRepo repository.AddressRepository,
	carrierRepo repository.CarrierRepository,
	discountSvc DiscountService,
	checkout config.CheckoutConfig,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		addressRepo: addressRepo,
		carrierRepo: carrierRepo,
		discountSvc: discountSvc,
		checkout:    checkout,
	}
}

// Create turns the user's cart into an order. Item prices are snapshotted at
// the current effective price; stock decrement, discount redemption and cart
// clearing happen atomically with the order insert.
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*domain.Order, error) {
	cartItems, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.checkAddress(ctx, userID, input.ShippingAddressID); err != nil {
		return nil, err
	}
	if input.BillingAddressID != input.ShippingAddressID {
		if err := s.checkAddress(ctx, userID, input.BillingAddressID); err != nil {
			return nil, err
		}
	}

	orderID := uuid.New()
	var subtotal float64
	items := make([]domain.OrderItem, 0, len(cartItems))
	for i, ci := range cartItems {
		// A product deactivated after being carted must not reach checkout.
		if ci.Product == nil || !ci.Product.IsActive {
			return nil, repository.ErrProductNotFound
		}
		price := ci.Product.EffectivePrice()
		lineTotal := roundMoney(price * float64(ci.Quantity))
		subtotal += lineTotal
		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: ci.ProductID,
			Quantity:  ci.Quantity,
			Price:     price,
			Total:     lineTotal,
			Position:  i,
		})
	}
	subtotal = roundMoney(subtotal)

	deduction, applied, err := s.discountSvc.Evaluate(ctx, input.DiscountCode, subtotal)
	if err != nil {
		return nil, err
	}

	shipping := s.checkout.DefaultShipping
	if input.CarrierID != nil {
		carrier, err := s.carrierRepo.FindByID(ctx, *input.CarrierID)
		if err != nil {
			if err == repository.ErrCarrierNotFound {
				return nil, repository.ErrCarrierNotFound
			}
			return nil, fmt.Errorf("failed to find carrier: %w", err)
		}
		if carrier.ShippingCost > 0 {
			shipping = carrier.ShippingCost
		}
	}

	tax := roundMoney(subtotal * s.checkout.TaxRate)
	total := roundMoney(subtotal + tax + shipping - deduction)

	orderNumber, err := generateOrderNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	now := time.Now()
	order := &domain.Order{
		ID:                orderID,
		OrderNumber:       orderNumber,
		UserID:            userID,
		Status:            domain.OrderStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		Subtotal:          subtotal,
		Tax:               tax,
		Shipping:          shipping,
		Discount:          deduction,
		Total:             total,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
		CarrierID:         input.CarrierID,
		Items:             items,
	}
	if applied != nil {
		order.DiscountCode = &applied.Code
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// Get returns an order; customers can only read their own.
func (s *orderService) Get(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !isStaff(role) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// List returns orders page by page. Customers see only their own orders
// regardless of filters; staff see everything.
func (s *orderService) List(ctx context.Context, userID uuid.UUID, role string, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	var owner *uuid.UUID
	if !isStaff(role) {
		owner = &userID
	}
	return s.orderRepo.List(ctx, owner, status, page, pageSize)
}

// UpdateStatus moves an order through its lifecycle, stamping shipment and
// delivery timestamps as the matching statuses are reached.
func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateOrderStatusInput) (*domain.Order, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.orderRepo.UpdateStatus(ctx, orderID, input.Status, input.TrackingNumber)
}

func (s *orderService) checkAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	address, err := s.addressRepo.FindByID(ctx, addressID)
	if err != nil {
		if err == repository.ErrAddressNotFound {
			return repository.ErrAddressNotFound
		}
		return fmt.Errorf("failed to find address: %w", err)
	}
	if address.UserID != userID {
		return repository.ErrAddressNotFound
	}
	return nil
}

func isStaff(role string) bool {
	return role == domain.RoleAdmin || role == domain.RoleManager
}

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateOrderNumber builds a human-readable reference: a millisecond
// timestamp plus nine random base36 characters.
func generateOrderNumber() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = orderNumberAlphabet[int(buf[i])%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), string(buf)), nil
}

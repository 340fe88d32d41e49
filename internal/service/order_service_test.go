package service

import (
	"context"
	"math"
	"regexp"
	"testing"
	"time"

	"mercato/internal/config"
	"mercato/internal/domain"
	"mercato/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type mockOrderRepository struct {
	orders   map[uuid.UUID]*domain.Order
	failWith error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) List(ctx context.Context, userID *uuid.UUID, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	out := []*domain.Order{}
	for _, order := range m.orders {
		if userID != nil && order.UserID != *userID {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, order)
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber *string) (*domain.Order, error) {
	order, exists := m.orders[id]
	if !exists {
		return nil, repository.ErrOrderNotFound
	}
	order.Status = status
	if trackingNumber != nil {
		order.TrackingNumber = trackingNumber
	}
	now := time.Now()
	switch status {
	case domain.OrderStatusShipped:
		order.ShippedAt = &now
	case domain.OrderStatusDelivered:
		order.DeliveredAt = &now
	}
	return order, nil
}

func (m *mockOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	order, exists := m.orders[id]
	if !exists {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

type mockCartRepository struct {
	items map[uuid.UUID][]*domain.CartItem
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{items: make(map[uuid.UUID][]*domain.CartItem)}
}

func (m *mockCartRepository) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	for _, existing := range m.items[item.UserID] {
		if existing.ProductID == item.ProductID {
			existing.Quantity += item.Quantity
			return existing, nil
		}
	}
	// The real table has no default on id; store what the caller sent.
	m.items[item.UserID] = append(m.items[item.UserID], item)
	return item, nil
}

func (m *mockCartRepository) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (*domain.CartItem, error) {
	for _, item := range m.items[userID] {
		if item.ID == id {
			item.Quantity = quantity
			return item, nil
		}
	}
	return nil, repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Remove(ctx context.Context, id, userID uuid.UUID) error {
	items := m.items[userID]
	for i, item := range items {
		if item.ID == id {
			m.items[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (m *mockCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	m.items[userID] = nil
	return nil
}

func (m *mockCartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	return m.items[userID], nil
}

type mockAddressRepository struct {
	addresses map[uuid.UUID]*domain.Address
}

func newMockAddressRepository() *mockAddressRepository {
	return &mockAddressRepository{addresses: make(map[uuid.UUID]*domain.Address)}
}

func (m *mockAddressRepository) Create(ctx context.Context, address *domain.Address) error {
	m.addresses[address.ID] = address
	return nil
}

func (m *mockAddressRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	address, exists := m.addresses[id]
	if !exists || address.UserID != userID {
		return repository.ErrAddressNotFound
	}
	delete(m.addresses, id)
	return nil
}

func (m *mockAddressRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Address, error) {
	out := []*domain.Address{}
	for _, address := range m.addresses {
		if address.UserID == userID {
			out = append(out, address)
		}
	}
	return out, nil
}

func (m *mockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Address, error) {
	address, exists := m.addresses[id]
	if !exists {
		return nil, repository.ErrAddressNotFound
	}
	return address, nil
}

type mockCarrierRepository struct {
	carriers map[uuid.UUID]*domain.Carrier
}

func newMockCarrierRepository() *mockCarrierRepository {
	return &mockCarrierRepository{carriers: make(map[uuid.UUID]*domain.Carrier)}
}

func (m *mockCarrierRepository) Create(ctx context.Context, carrier *domain.Carrier) error {
	m.carriers[carrier.ID] = carrier
	return nil
}

func (m *mockCarrierRepository) Update(ctx context.Context, carrier *domain.Carrier) error {
	if _, exists := m.carriers[carrier.ID]; !exists {
		return repository.ErrCarrierNotFound
	}
	m.carriers[carrier.ID] = carrier
	return nil
}

func (m *mockCarrierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, exists := m.carriers[id]; !exists {
		return repository.ErrCarrierNotFound
	}
	delete(m.carriers, id)
	return nil
}

func (m *mockCarrierRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Carrier, error) {
	out := []*domain.Carrier{}
	for _, carrier := range m.carriers {
		if activeOnly && !carrier.IsActive {
			continue
		}
		out = append(out, carrier)
	}
	return out, nil
}

func (m *mockCarrierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Carrier, error) {
	carrier, exists := m.carriers[id]
	if !exists {
		return nil, repository.ErrCarrierNotFound
	}
	return carrier, nil
}

var testCheckout = config.CheckoutConfig{
	TaxRate:         0.22,
	DefaultShipping: 5.0,
	Currency:        "eur",
}

type orderFixture struct {
	svc          OrderService
	orderRepo    *mockOrderRepository
	cartRepo     *mockCartRepository
	addressRepo  *mockAddressRepository
	carrierRepo  *mockCarrierRepository
	discountRepo *mockDiscountRepository
	userID       uuid.UUID
	addressID    uuid.UUID
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orderRepo:    newMockOrderRepository(),
		cartRepo:     newMockCartRepository(),
		addressRepo:  newMockAddressRepository(),
		carrierRepo:  newMockCarrierRepository(),
		discountRepo: newMockDiscountRepository(),
		userID:       uuid.New(),
		addressID:    uuid.New(),
	}
	f.addressRepo.addresses[f.addressID] = &domain.Address{
		ID:      f.addressID,
		UserID:  f.userID,
		Street:  "Via Roma 1",
		City:    "Milano",
		Country: "IT",
	}
	f.svc = NewOrderService(
		f.orderRepo,
		f.cartRepo,
		f.addressRepo,
		f.carrierRepo,
		NewDiscountService(f.discountRepo),
		testCheckout,
	)
	return f
}

func (f *orderFixture) addToCart(price float64, salePrice *float64, quantity int) *domain.Product {
	product := &domain.Product{
		ID:        uuid.New(),
		Name:      "item",
		Price:     price,
		SalePrice: salePrice,
		IsActive:  true,
	}
	f.cartRepo.items[f.userID] = append(f.cartRepo.items[f.userID], &domain.CartItem{
		ID:        uuid.New(),
		UserID:    f.userID,
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   product,
	})
	return product
}

func (f *orderFixture) checkoutInput() CreateOrderInput {
	return CreateOrderInput{
		ShippingAddressID: f.addressID,
		BillingAddressID:  f.addressID,
	}
}

func TestCreateOrder_TotalsAreConsistent(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 2)

	order, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Subtotal != 20.00 {
		t.Errorf("expected subtotal 20.00, got %f", order.Subtotal)
	}
	if order.Tax != 4.40 {
		t.Errorf("expected tax 4.40, got %f", order.Tax)
	}
	if order.Shipping != 5.00 {
		t.Errorf("expected shipping 5.00, got %f", order.Shipping)
	}
	if order.Total != 29.40 {
		t.Errorf("expected total 29.40, got %f", order.Total)
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected status PENDING, got %s", order.Status)
	}
	// The repository inserts these verbatim, so the service must stamp them
	// or listing by created_at breaks.
	if order.CreatedAt.IsZero() || order.UpdatedAt.IsZero() {
		t.Error("expected order timestamps to be set before persisting")
	}
}

func TestProperty_OrderMoneyIdentityHolds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total = subtotal + tax + shipping - discount", prop.ForAll(
		func(priceCents int, quantity int) bool {
			f := newOrderFixture()
			f.addToCart(float64(priceCents)/100, nil, quantity)

			order, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
			if err != nil {
				return false
			}

			identity := order.Subtotal + order.Tax + order.Shipping - order.Discount
			return math.Abs(order.Total-roundMoney(identity)) < 1e-9
		},
		gen.IntRange(1, 100_000),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestCreateOrder_SnapshotsEffectivePrice(t *testing.T) {
	f := newOrderFixture()
	salePrice := 7.50
	product := f.addToCart(10.00, &salePrice, 3)

	order, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductID != product.ID {
		t.Errorf("unexpected product id")
	}
	if item.Price != 7.50 {
		t.Errorf("expected snapshotted sale price 7.50, got %f", item.Price)
	}
	if item.Total != 22.50 {
		t.Errorf("expected line total 22.50, got %f", item.Total)
	}
	if order.Subtotal != 22.50 {
		t.Errorf("expected subtotal 22.50, got %f", order.Subtotal)
	}
}

func TestCreateOrder_AppliesDiscountCode(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 2)
	if err := f.discountRepo.Create(context.Background(), activeDiscount("SAVE10", domain.DiscountTypeFixed, 10)); err != nil {
		t.Fatalf("failed to seed discount: %v", err)
	}

	input := f.checkoutInput()
	input.DiscountCode = "save10"

	order, err := f.svc.Create(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Discount != 10.00 {
		t.Errorf("expected discount 10.00, got %f", order.Discount)
	}
	if order.DiscountCode == nil || *order.DiscountCode != "SAVE10" {
		t.Errorf("expected discount code SAVE10 on the order")
	}
	if order.Total != 19.40 {
		t.Errorf("expected total 19.40, got %f", order.Total)
	}
}

func TestCreateOrder_InvalidDiscountCodeIsIgnored(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 2)

	input := f.checkoutInput()
	input.DiscountCode = "BOGUS"

	order, err := f.svc.Create(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Discount != 0 || order.DiscountCode != nil {
		t.Errorf("expected no discount applied, got %f (%v)", order.Discount, order.DiscountCode)
	}
}

func TestCreateOrder_UsesCarrierShippingCost(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)

	carrier := &domain.Carrier{ID: uuid.New(), Name: "Express", ShippingCost: 12.90, IsActive: true}
	f.carrierRepo.carriers[carrier.ID] = carrier

	input := f.checkoutInput()
	input.CarrierID = &carrier.ID

	order, err := f.svc.Create(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Shipping != 12.90 {
		t.Errorf("expected carrier shipping 12.90, got %f", order.Shipping)
	}
}

func TestCreateOrder_ZeroCostCarrierFallsBackToDefault(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)

	carrier := &domain.Carrier{ID: uuid.New(), Name: "Economy", ShippingCost: 0, IsActive: true}
	f.carrierRepo.carriers[carrier.ID] = carrier

	input := f.checkoutInput()
	input.CarrierID = &carrier.ID

	order, err := f.svc.Create(context.Background(), f.userID, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Shipping != testCheckout.DefaultShipping {
		t.Errorf("expected default shipping %f, got %f", testCheckout.DefaultShipping, order.Shipping)
	}
}

func TestCreateOrder_EmptyCartIsRejected(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != ErrEmptyCart {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCreateOrder_ForeignAddressIsRejected(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)

	foreignAddress := &domain.Address{ID: uuid.New(), UserID: uuid.New()}
	f.addressRepo.addresses[foreignAddress.ID] = foreignAddress

	input := CreateOrderInput{
		ShippingAddressID: foreignAddress.ID,
		BillingAddressID:  foreignAddress.ID,
	}

	_, err := f.svc.Create(context.Background(), f.userID, input)
	if err != repository.ErrAddressNotFound {
		t.Errorf("expected ErrAddressNotFound for another user's address, got %v", err)
	}
}

func TestCreateOrder_DeactivatedProductIsRejected(t *testing.T) {
	f := newOrderFixture()
	product := f.addToCart(10.00, nil, 1)
	product.IsActive = false

	_, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != repository.ErrProductNotFound {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if len(f.orderRepo.orders) != 0 {
		t.Error("expected no order to be persisted")
	}
}

func TestCreateOrder_InsufficientStockSurfaces(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)
	f.orderRepo.failWith = repository.ErrInsufficientStock

	_, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != repository.ErrInsufficientStock {
		t.Errorf("expected ErrInsufficientStock, got %v", err)
	}
}

var orderNumberPattern = regexp.MustCompile(`^ORD-\d+-[0-9A-Z]{9}$`)

func TestProperty_OrderNumbersAreWellFormedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		num, err := generateOrderNumber()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !orderNumberPattern.MatchString(num) {
			t.Fatalf("malformed order number: %s", num)
		}
		if seen[num] {
			t.Fatalf("duplicate order number: %s", num)
		}
		seen[num] = true
	}
}

func TestGetOrder_AccessControl(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)

	order, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Owner reads their own order
	if _, err := f.svc.Get(context.Background(), f.userID, domain.RoleCustomer, order.ID); err != nil {
		t.Errorf("owner should read own order, got %v", err)
	}

	// Another customer is denied
	if _, err := f.svc.Get(context.Background(), uuid.New(), domain.RoleCustomer, order.ID); err != ErrOrderAccessDenied {
		t.Errorf("expected ErrOrderAccessDenied for stranger, got %v", err)
	}

	// Staff read anything
	if _, err := f.svc.Get(context.Background(), uuid.New(), domain.RoleAdmin, order.ID); err != nil {
		t.Errorf("admin should read any order, got %v", err)
	}
	if _, err := f.svc.Get(context.Background(), uuid.New(), domain.RoleManager, order.ID); err != nil {
		t.Errorf("manager should read any order, got %v", err)
	}
}

func TestUpdateStatus_StampsShipmentTimestamps(t *testing.T) {
	f := newOrderFixture()
	f.addToCart(10.00, nil, 1)

	order, err := f.svc.Create(context.Background(), f.userID, f.checkoutInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tracking := "TRK123"
	shipped, err := f.svc.UpdateStatus(context.Background(), order.ID, UpdateOrderStatusInput{
		Status:         domain.OrderStatusShipped,
		TrackingNumber: &tracking,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shipped.ShippedAt == nil {
		t.Errorf("expected shipped_at to be stamped")
	}
	if shipped.TrackingNumber == nil || *shipped.TrackingNumber != tracking {
		t.Errorf("expected tracking number to be stored")
	}

	if _, err := f.svc.UpdateStatus(context.Background(), order.ID, UpdateOrderStatusInput{Status: "BOGUS"}); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

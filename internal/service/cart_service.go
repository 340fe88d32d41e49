package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"mercato/internal/domain"
	"mercato/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)

// CartService manages a user's cart and materializes it against live prices.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// Get returns the cart with totals computed from each product's current
// effective price.
func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}

	cart := &domain.Cart{Items: items}
	for _, item := range items {
		cart.ItemCount += item.Quantity
		if item.Product != nil {
			cart.Total += item.Product.EffectivePrice() * float64(item.Quantity)
		}
	}
	cart.Total = roundMoney(cart.Total)

	return cart, nil
}

// AddItem adds a product to the cart; quantities for an already-carted
// product accumulate on the existing line.
func (s *cartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return nil, repository.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductUnavailable
	}
	if product.Inventory != nil && product.Inventory.Quantity < quantity {
		return nil, repository.ErrInsufficientStock
	}

	item, err := s.cartRepo.Upsert(ctx, &domain.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	item.Product = product

	return item, nil
}

// UpdateItem sets the quantity of an existing cart line.
func (s *cartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.cartRepo.UpdateQuantity(ctx, itemID, userID, quantity)
	if err != nil {
		if err == repository.ErrCartItemNotFound {
			return nil, repository.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return item, nil
}

// RemoveItem deletes a single cart line.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartRepo.Remove(ctx, itemID, userID); err != nil {
		if err == repository.ErrCartItemNotFound {
			return repository.ErrCartItemNotFound
		}
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// roundMoney rounds to two decimal places.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mercato/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// Upsert adds quantity to the (user, product) row, creating it when
	// absent. The increment happens in the database so concurrent adds
	// cannot lose updates.
	Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error)
	UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, id, userID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	out := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, item.ID, item.UserID, item.ProductID, item.Quantity).Scan(
		&out.ID,
		&out.UserID,
		&out.ProductID,
		&out.Quantity,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	return out, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id, userID uuid.UUID, quantity int) (*domain.CartItem, error) {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	out := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, id, userID, quantity).Scan(
		&out.ID,
		&out.UserID,
		&out.ProductID,
		&out.Quantity,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return out, nil
}

func (r *cartRepository) Remove(ctx context.Context, id, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ListByUser retrieves the user's cart items with their products loaded
func (r *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.CartItem, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at, %s
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		JOIN inventory i ON i.product_id = p.id
		WHERE c.user_id = $1
		ORDER BY c.created_at ASC
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []*domain.CartItem{}
	for rows.Next() {
		item := &domain.CartItem{Product: &domain.Product{Inventory: &domain.Inventory{}}}
		p := item.Product
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.Description,
			&p.ShortDescription,
			&p.Price,
			&p.SalePrice,
			&p.SKU,
			&p.Barcode,
			&p.CategoryID,
			&p.SupplierID,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.Inventory.Quantity,
			&p.Inventory.ReservedQuantity,
			&p.Inventory.LowStockThreshold,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		p.Inventory.ProductID = p.ID
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

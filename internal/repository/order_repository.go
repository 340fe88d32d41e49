package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mercato/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create persists the order, its items, the conditional inventory
	// decrement, the discount redemption and the cart clearing in one
	// transaction. A decrement that would drive on-hand quantity negative
	// aborts the whole transaction with ErrInsufficientStock.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, userID *uuid.UUID, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber *string) (*domain.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, order_number, user_id, status, subtotal, tax, shipping, discount, total,
		                    discount_code, shipping_address_id, billing_address_id, carrier_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.Subtotal,
		order.Tax,
		order.Shipping,
		order.Discount,
		order.Total,
		order.DiscountCode,
		order.ShippingAddressID,
		order.BillingAddressID,
		order.CarrierID,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.Position = i
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price, total, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price, item.Total, item.Position)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		// Conditional decrement: zero rows affected means the stock check
		// and the write would disagree, so the whole checkout fails.
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = quantity - $2, reserved_quantity = reserved_quantity + $2, updated_at = NOW()
			WHERE product_id = $1 AND quantity >= $2
		`, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to decrement inventory: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrInsufficientStock
		}
	}

	if order.DiscountCode != nil && order.Discount > 0 {
		_, err = tx.ExecContext(ctx, `
			UPDATE discounts
			SET used_count = used_count + 1
			WHERE code = $1 AND (max_uses IS NULL OR used_count < max_uses)
		`, *order.DiscountCode)
		if err != nil {
			return fmt.Errorf("failed to redeem discount: %w", err)
		}
	}

	// Checkout consumes the cart.
	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order creation: %w", err)
	}

	return nil
}

const orderColumns = `
	id, order_number, user_id, status, subtotal, tax, shipping, discount, total,
	discount_code, shipping_address_id, billing_address_id, carrier_id,
	tracking_number, shipped_at, delivered_at, created_at, updated_at
`

func scanOrder(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Order, error) {
	order := &domain.Order{}
	err := scanner.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.Subtotal,
		&order.Tax,
		&order.Shipping,
		&order.Discount,
		&order.Total,
		&order.DiscountCode,
		&order.ShippingAddressID,
		&order.BillingAddressID,
		&order.CarrierID,
		&order.TrackingNumber,
		&order.ShippedAt,
		&order.DeliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price, total, position
		FROM order_items
		WHERE order_id = $1
		ORDER BY position ASC
	`, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price, &item.Total, &item.Position); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

// List retrieves orders, optionally scoped to a user and status
func (r *orderRepository) List(ctx context.Context, userID *uuid.UUID, status *domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	conditions := ""
	args := []interface{}{}
	argIndex := 1

	if userID != nil {
		conditions = fmt.Sprintf("WHERE user_id = $%d", argIndex)
		args = append(args, *userID)
		argIndex++
	}
	if status != nil {
		if conditions == "" {
			conditions = fmt.Sprintf("WHERE status = $%d", argIndex)
		} else {
			conditions += fmt.Sprintf(" AND status = $%d", argIndex)
		}
		args = append(args, *status)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", conditions)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, conditions, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus sets the order status, stamping shipped/delivered timestamps
// for the corresponding transitions. No transition guards are applied.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, trackingNumber *string) (*domain.Order, error) {
	var shippedAt, deliveredAt *time.Time
	now := time.Now()
	if status == domain.OrderStatusShipped {
		shippedAt = &now
	}
	if status == domain.OrderStatusDelivered {
		deliveredAt = &now
	}

	query := fmt.Sprintf(`
		UPDATE orders
		SET status = $2,
		    tracking_number = COALESCE($3, tracking_number),
		    shipped_at = COALESCE($4, shipped_at),
		    delivered_at = COALESCE($5, delivered_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, status, trackingNumber, shippedAt, deliveredAt))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return order, nil
}

// SetStatus updates only the status column
func (r *orderRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

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
	ErrPaymentNotFound = errors.New("payment not found")
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error)
	// FindLatestByOrder is the fallback lookup for backends with no real
	// provider id before confirmation.
	FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	FindByIdempotencyKey(ctx context.Context, orderID uuid.UUID, key string) (*domain.Payment, error)
	HasCompletedForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	// Complete marks the payment COMPLETED and flips the parent order to
	// PROCESSING in the same transaction.
	Complete(ctx context.Context, paymentID uuid.UUID, transactionID string) error
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `
	id, order_id, method, status, amount, provider_ref, transaction_id,
	idempotency_key, metadata, created_at, updated_at
`

func scanPayment(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := scanner.Scan(
		&p.ID,
		&p.OrderID,
		&p.Method,
		&p.Status,
		&p.Amount,
		&p.ProviderRef,
		&p.TransactionID,
		&p.IdempotencyKey,
		&p.Metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, method, status, amount, provider_ref, transaction_id,
		                      idempotency_key, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		payment.ID,
		payment.OrderID,
		payment.Method,
		payment.Status,
		payment.Amount,
		payment.ProviderRef,
		payment.TransactionID,
		payment.IdempotencyKey,
		payment.Metadata,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) FindByProviderRef(ctx context.Context, providerRef string) (*domain.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE provider_ref = $1`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, providerRef))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment by provider ref: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByOrder(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find latest payment for order: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByIdempotencyKey(ctx context.Context, orderID uuid.UUID, key string) (*domain.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE order_id = $1 AND idempotency_key = $2
	`, paymentColumns)

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID, key))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment by idempotency key: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) HasCompletedForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)
	`, orderID, domain.PaymentStatusCompleted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check completed payments: %w", err)
	}
	return exists, nil
}

func (r *paymentRepository) Complete(ctx context.Context, paymentID uuid.UUID, transactionID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var orderID uuid.UUID
	err = tx.QueryRowContext(ctx, `
		UPDATE payments
		SET status = $2, transaction_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING order_id
	`, paymentID, domain.PaymentStatusCompleted, transactionID).Scan(&orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("failed to complete payment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, orderID, domain.OrderStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to move order to processing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment completion: %w", err)
	}

	return nil
}

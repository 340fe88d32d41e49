package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mercato/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrDiscountNotFound      = errors.New("discount not found")
	ErrDiscountAlreadyExists = errors.New("discount with this code already exists")
)

// DiscountRepository defines the interface for discount data access.
// Codes are normalized to uppercase on both write and read paths.
type DiscountRepository interface {
	Create(ctx context.Context, discount *domain.Discount) error
	Update(ctx context.Context, discount *domain.Discount) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Discount, error)
	FindByCode(ctx context.Context, code string) (*domain.Discount, error)
}

type discountRepository struct {
	db *sql.DB
}

// NewDiscountRepository creates a new instance of DiscountRepository
func NewDiscountRepository(db *sql.DB) DiscountRepository {
	return &discountRepository{db: db}
}

const discountColumns = `
	id, code, description, type, value, min_order_amount, max_uses, used_count,
	start_date, end_date, is_active, created_at
`

func scanDiscount(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Discount, error) {
	d := &domain.Discount{}
	err := scanner.Scan(
		&d.ID,
		&d.Code,
		&d.Description,
		&d.Type,
		&d.Value,
		&d.MinOrderAmount,
		&d.MaxUses,
		&d.UsedCount,
		&d.StartDate,
		&d.EndDate,
		&d.IsActive,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *discountRepository) Create(ctx context.Context, discount *domain.Discount) error {
	discount.Code = strings.ToUpper(discount.Code)

	query := `
		INSERT INTO discounts (id, code, description, type, value, min_order_amount, max_uses,
		                       used_count, start_date, end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Code,
		discount.Description,
		discount.Type,
		discount.Value,
		discount.MinOrderAmount,
		discount.MaxUses,
		discount.UsedCount,
		discount.StartDate,
		discount.EndDate,
		discount.IsActive,
		discount.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDiscountAlreadyExists
		}
		return fmt.Errorf("failed to create discount: %w", err)
	}

	return nil
}

func (r *discountRepository) Update(ctx context.Context, discount *domain.Discount) error {
	discount.Code = strings.ToUpper(discount.Code)

	query := `
		UPDATE discounts
		SET code = $2, description = $3, type = $4, value = $5, min_order_amount = $6,
		    max_uses = $7, start_date = $8, end_date = $9, is_active = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		discount.ID,
		discount.Code,
		discount.Description,
		discount.Type,
		discount.Value,
		discount.MinOrderAmount,
		discount.MaxUses,
		discount.StartDate,
		discount.EndDate,
		discount.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDiscountAlreadyExists
		}
		return fmt.Errorf("failed to update discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrDiscountNotFound
	}

	return nil
}

func (r *discountRepository) List(ctx context.Context) ([]*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts ORDER BY created_at DESC`, discountColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	discounts := []*domain.Discount{}
	for rows.Next() {
		discount, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, discount)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discounts: %w", err)
	}

	return discounts, nil
}

func (r *discountRepository) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	query := fmt.Sprintf(`SELECT %s FROM discounts WHERE code = $1`, discountColumns)

	discount, err := scanDiscount(r.db.QueryRowContext(ctx, query, strings.ToUpper(code)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to find discount by code: %w", err)
	}

	return discount, nil
}

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
	ErrCarrierNotFound = errors.New("carrier not found")
)

// CarrierRepository defines the interface for carrier data access
type CarrierRepository interface {
	Create(ctx context.Context, carrier *domain.Carrier) error
	Update(ctx context.Context, carrier *domain.Carrier) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*domain.Carrier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Carrier, error)
}

type carrierRepository struct {
	db *sql.DB
}

// NewCarrierRepository creates a new instance of CarrierRepository
func NewCarrierRepository(db *sql.DB) CarrierRepository {
	return &carrierRepository{db: db}
}

func (r *carrierRepository) Create(ctx context.Context, carrier *domain.Carrier) error {
	query := `
		INSERT INTO carriers (id, name, code, website, tracking_url, shipping_cost, estimated_days, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		carrier.ID,
		carrier.Name,
		carrier.Code,
		carrier.Website,
		carrier.TrackingURL,
		carrier.ShippingCost,
		carrier.EstimatedDays,
		carrier.IsActive,
		carrier.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create carrier: %w", err)
	}

	return nil
}

func (r *carrierRepository) Update(ctx context.Context, carrier *domain.Carrier) error {
	query := `
		UPDATE carriers
		SET name = $2, code = $3, website = $4, tracking_url = $5,
		    shipping_cost = $6, estimated_days = $7, is_active = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		carrier.ID,
		carrier.Name,
		carrier.Code,
		carrier.Website,
		carrier.TrackingURL,
		carrier.ShippingCost,
		carrier.EstimatedDays,
		carrier.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update carrier: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCarrierNotFound
	}

	return nil
}

func (r *carrierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carriers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete carrier: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCarrierNotFound
	}

	return nil
}

func (r *carrierRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Carrier, error) {
	query := `
		SELECT id, name, code, website, tracking_url, shipping_cost, estimated_days, is_active, created_at
		FROM carriers
	`
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list carriers: %w", err)
	}
	defer rows.Close()

	carriers := []*domain.Carrier{}
	for rows.Next() {
		carrier := &domain.Carrier{}
		err := rows.Scan(
			&carrier.ID,
			&carrier.Name,
			&carrier.Code,
			&carrier.Website,
			&carrier.TrackingURL,
			&carrier.ShippingCost,
			&carrier.EstimatedDays,
			&carrier.IsActive,
			&carrier.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carrier: %w", err)
		}
		carriers = append(carriers, carrier)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carriers: %w", err)
	}

	return carriers, nil
}

func (r *carrierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Carrier, error) {
	query := `
		SELECT id, name, code, website, tracking_url, shipping_cost, estimated_days, is_active, created_at
		FROM carriers
		WHERE id = $1
	`

	carrier := &domain.Carrier{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&carrier.ID,
		&carrier.Name,
		&carrier.Code,
		&carrier.Website,
		&carrier.TrackingURL,
		&carrier.ShippingCost,
		&carrier.EstimatedDays,
		&carrier.IsActive,
		&carrier.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCarrierNotFound
		}
		return nil, fmt.Errorf("failed to find carrier by ID: %w", err)
	}

	return carrier, nil
}

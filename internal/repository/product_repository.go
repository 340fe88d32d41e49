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
	ErrProductNotFound = errors.New("product not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ProductFilter narrows List results
type ProductFilter struct {
	CategoryID *uuid.UUID
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	ActiveOnly bool
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product together with its images and inventory row
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, slug, description, short_description, price, sale_price,
		                      sku, barcode, category_id, supplier_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.ShortDescription,
		product.Price,
		product.SalePrice,
		product.SKU,
		product.Barcode,
		product.CategoryID,
		product.SupplierID,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	for i := range product.Images {
		img := &product.Images[i]
		img.ProductID = product.ID
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO product_images (id, product_id, url, alt, is_primary, position)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, img.ID, img.ProductID, img.URL, img.Alt, img.IsPrimary, i)
		if err != nil {
			return fmt.Errorf("failed to create product image: %w", err)
		}
	}

	inv := product.Inventory
	if inv == nil {
		inv = &domain.Inventory{LowStockThreshold: 10}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (product_id, quantity, reserved_quantity, low_stock_threshold, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, product.ID, inv.Quantity, inv.ReservedQuantity, inv.LowStockThreshold)
	if err != nil {
		return fmt.Errorf("failed to create inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product creation: %w", err)
	}

	return nil
}

// Update updates an existing product in the database using parameterized queries
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, short_description = $5, price = $6,
		    sale_price = $7, sku = $8, barcode = $9, category_id = $10, supplier_id = $11,
		    is_active = $12, updated_at = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.ShortDescription,
		product.Price,
		product.SalePrice,
		product.SKU,
		product.Barcode,
		product.CategoryID,
		product.SupplierID,
		product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if product.Inventory != nil {
		_, err = r.db.ExecContext(ctx, `
			UPDATE inventory
			SET quantity = $2, low_stock_threshold = $3, updated_at = NOW()
			WHERE product_id = $1
		`, product.ID, product.Inventory.Quantity, product.Inventory.LowStockThreshold)
		if err != nil {
			return fmt.Errorf("failed to update inventory: %w", err)
		}
	}

	return nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

const productColumns = `
	p.id, p.name, p.slug, p.description, p.short_description, p.price, p.sale_price,
	p.sku, p.barcode, p.category_id, p.supplier_id, p.is_active, p.created_at, p.updated_at,
	i.quantity, i.reserved_quantity, i.low_stock_threshold
`

func scanProduct(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Product, error) {
	product := &domain.Product{Inventory: &domain.Inventory{}}
	err := scanner.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.ShortDescription,
		&product.Price,
		&product.SalePrice,
		&product.SKU,
		&product.Barcode,
		&product.CategoryID,
		&product.SupplierID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Inventory.Quantity,
		&product.Inventory.ReservedQuantity,
		&product.Inventory.LowStockThreshold,
	)
	if err != nil {
		return nil, err
	}
	product.Inventory.ProductID = product.ID
	return product, nil
}

// FindByID retrieves a product with its inventory and images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		WHERE p.id = $1
	`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	if err := r.loadImages(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) loadImages(ctx context.Context, product *domain.Product) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, url, alt, is_primary, position
		FROM product_images
		WHERE product_id = $1
		ORDER BY position ASC
	`, product.ID)
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img domain.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.URL, &img.Alt, &img.IsPrimary, &img.Position); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		product.Images = append(product.Images, img)
	}

	return rows.Err()
}

// List retrieves products with filtering, pagination, and sorting
func (r *productRepository) List(ctx context.Context, filter ProductFilter, page, pageSize int, sortBy string, sortOrder SortOrder) ([]*domain.Product, int, error) {
	// Validate sort field to prevent SQL injection
	validSortFields := map[string]string{
		"name":       "p.name",
		"price":      "p.price",
		"created_at": "p.created_at",
	}

	sortColumn, ok := validSortFields[sortBy]
	if !ok {
		sortColumn = "p.created_at"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.ActiveOnly {
		conditions = append(conditions, "p.is_active = TRUE")
	}
	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("p.category_id = $%d", argIndex))
		args = append(args, *filter.CategoryID)
		argIndex++
	}
	if strings.TrimSpace(filter.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products p %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN inventory i ON i.product_id = p.id
		%s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, sortColumn, sortOrder, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

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
	ErrPageNotFound  = errors.New("page not found")
	ErrPageSlugTaken = errors.New("page slug already in use")
)

// CMSRepository defines the interface for content page data access
type CMSRepository interface {
	Create(ctx context.Context, page *domain.CMSPage) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.CMSPage, error)
	FindBySlug(ctx context.Context, slug string) (*domain.CMSPage, error)
	List(ctx context.Context, publishedOnly bool) ([]*domain.CMSPage, error)
	Update(ctx context.Context, page *domain.CMSPage) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type cmsRepository struct {
	db *sql.DB
}

// NewCMSRepository creates a new instance of CMSRepository
func NewCMSRepository(db *sql.DB) CMSRepository {
	return &cmsRepository{db: db}
}

const pageColumns = `id, title, slug, content, meta_title, meta_description, is_published, created_at, updated_at`

func scanPage(row interface{ Scan(...any) error }) (*domain.CMSPage, error) {
	p := &domain.CMSPage{}
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Content,
		&p.MetaTitle,
		&p.MetaDescription,
		&p.IsPublished,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *cmsRepository) Create(ctx context.Context, page *domain.CMSPage) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	now := time.Now()
	page.CreatedAt = now
	page.UpdatedAt = now

	query := `
		INSERT INTO cms_pages (id, title, slug, content, meta_title, meta_description, is_published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		page.ID,
		page.Title,
		page.Slug,
		page.Content,
		page.MetaTitle,
		page.MetaDescription,
		page.IsPublished,
		page.CreatedAt,
		page.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPageSlugTaken
		}
		return fmt.Errorf("failed to create page: %w", err)
	}

	return nil
}

func (r *cmsRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CMSPage, error) {
	query := `SELECT ` + pageColumns + ` FROM cms_pages WHERE id = $1`

	page, err := scanPage(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to find page: %w", err)
	}

	return page, nil
}

func (r *cmsRepository) FindBySlug(ctx context.Context, slug string) (*domain.CMSPage, error) {
	query := `SELECT ` + pageColumns + ` FROM cms_pages WHERE slug = $1`

	page, err := scanPage(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to find page by slug: %w", err)
	}

	return page, nil
}

func (r *cmsRepository) List(ctx context.Context, publishedOnly bool) ([]*domain.CMSPage, error) {
	query := `SELECT ` + pageColumns + ` FROM cms_pages`
	if publishedOnly {
		query += ` WHERE is_published = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	pages := []*domain.CMSPage{}
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pages: %w", err)
	}

	return pages, nil
}

func (r *cmsRepository) Update(ctx context.Context, page *domain.CMSPage) error {
	page.UpdatedAt = time.Now()

	query := `
		UPDATE cms_pages
		SET title = $2, slug = $3, content = $4, meta_title = $5, meta_description = $6, is_published = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		page.ID,
		page.Title,
		page.Slug,
		page.Content,
		page.MetaTitle,
		page.MetaDescription,
		page.IsPublished,
		page.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPageSlugTaken
		}
		return fmt.Errorf("failed to update page: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrPageNotFound
	}

	return nil
}

func (r *cmsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cms_pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrPageNotFound
	}

	return nil
}

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
	ErrSubscriberNotFound = errors.New("newsletter subscriber not found")
)

// NewsletterRepository defines the interface for newsletter data access
type NewsletterRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.NewsletterSubscriber, error)
	Create(ctx context.Context, subscriber *domain.NewsletterSubscriber) error
	Reactivate(ctx context.Context, email string) error
	Deactivate(ctx context.Context, email string) error
	ListActive(ctx context.Context) ([]*domain.NewsletterSubscriber, error)
}

type newsletterRepository struct {
	db *sql.DB
}

// NewNewsletterRepository creates a new instance of NewsletterRepository
func NewNewsletterRepository(db *sql.DB) NewsletterRepository {
	return &newsletterRepository{db: db}
}

func (r *newsletterRepository) FindByEmail(ctx context.Context, email string) (*domain.NewsletterSubscriber, error) {
	query := `
		SELECT id, email, is_active, subscribed_at, unsubscribed_at
		FROM newsletter_subscribers
		WHERE email = $1
	`

	s := &domain.NewsletterSubscriber{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&s.ID,
		&s.Email,
		&s.IsActive,
		&s.SubscribedAt,
		&s.UnsubscribedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to find subscriber: %w", err)
	}

	return s, nil
}

func (r *newsletterRepository) Create(ctx context.Context, subscriber *domain.NewsletterSubscriber) error {
	if subscriber.ID == uuid.Nil {
		subscriber.ID = uuid.New()
	}
	if subscriber.SubscribedAt.IsZero() {
		subscriber.SubscribedAt = time.Now()
	}

	query := `
		INSERT INTO newsletter_subscribers (id, email, is_active, subscribed_at)
		VALUES ($1, $2, TRUE, $3)
	`

	_, err := r.db.ExecContext(ctx, query, subscriber.ID, subscriber.Email, subscriber.SubscribedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

func (r *newsletterRepository) Reactivate(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers
		SET is_active = TRUE, unsubscribed_at = NULL
		WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("failed to reactivate subscriber: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubscriberNotFound
	}

	return nil
}

func (r *newsletterRepository) Deactivate(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE newsletter_subscribers
		SET is_active = FALSE, unsubscribed_at = NOW()
		WHERE email = $1
	`, email)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscriber: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubscriberNotFound
	}

	return nil
}

func (r *newsletterRepository) ListActive(ctx context.Context) ([]*domain.NewsletterSubscriber, error) {
	query := `
		SELECT id, email, is_active, subscribed_at, unsubscribed_at
		FROM newsletter_subscribers
		WHERE is_active = TRUE
		ORDER BY subscribed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []*domain.NewsletterSubscriber{}
	for rows.Next() {
		s := &domain.NewsletterSubscriber{}
		err := rows.Scan(&s.ID, &s.Email, &s.IsActive, &s.SubscribedAt, &s.UnsubscribedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subscribers, nil
}

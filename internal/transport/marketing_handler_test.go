package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercato/internal/domain"
	"mercato/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubDiscountRepo struct {
	discounts map[string]*domain.Discount
}

func (s *stubDiscountRepo) Create(ctx context.Context, d *domain.Discount) error { return nil }
func (s *stubDiscountRepo) Update(ctx context.Context, d *domain.Discount) error { return nil }
func (s *stubDiscountRepo) Delete(ctx context.Context, id uuid.UUID) error       { return nil }
func (s *stubDiscountRepo) List(ctx context.Context) ([]*domain.Discount, error) { return nil, nil }

func (s *stubDiscountRepo) FindByCode(ctx context.Context, code string) (*domain.Discount, error) {
	d, ok := s.discounts[strings.ToUpper(code)]
	if !ok {
		return nil, repository.ErrDiscountNotFound
	}
	return d, nil
}

type stubNewsletterRepo struct{}

func (s *stubNewsletterRepo) FindByEmail(ctx context.Context, email string) (*domain.NewsletterSubscriber, error) {
	return nil, repository.ErrSubscriberNotFound
}
func (s *stubNewsletterRepo) Create(ctx context.Context, sub *domain.NewsletterSubscriber) error {
	return nil
}
func (s *stubNewsletterRepo) Reactivate(ctx context.Context, email string) error { return nil }
func (s *stubNewsletterRepo) Deactivate(ctx context.Context, email string) error { return nil }
func (s *stubNewsletterRepo) ListActive(ctx context.Context) ([]*domain.NewsletterSubscriber, error) {
	return nil, nil
}

func passthrough(next http.Handler) http.Handler { return next }

func newMarketingRouter(discounts map[string]*domain.Discount) chi.Router {
	handler := NewMarketingHandler(&stubNewsletterRepo{}, &stubDiscountRepo{discounts: discounts}, zap.NewNop())
	r := chi.NewRouter()
	handler.RegisterRoutes(r, passthrough, passthrough)
	return r
}

func validateCode(t *testing.T, router chi.Router, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/discounts/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestValidateCode(t *testing.T) {
	minOrder := 50.0
	now := time.Now()
	discounts := map[string]*domain.Discount{
		"SUMMER10": {
			ID:        uuid.New(),
			Code:      "SUMMER10",
			Type:      domain.DiscountTypePercentage,
			Value:     10,
			StartDate: now.Add(-24 * time.Hour),
			EndDate:   now.Add(24 * time.Hour),
			IsActive:  true,
		},
		"BIGSPEND": {
			ID:             uuid.New(),
			Code:           "BIGSPEND",
			Type:           domain.DiscountTypeFixed,
			Value:          15,
			MinOrderAmount: &minOrder,
			StartDate:      now.Add(-24 * time.Hour),
			EndDate:        now.Add(24 * time.Hour),
			IsActive:       true,
		},
		"EXPIRED": {
			ID:        uuid.New(),
			Code:      "EXPIRED",
			Type:      domain.DiscountTypePercentage,
			Value:     20,
			StartDate: now.Add(-48 * time.Hour),
			EndDate:   now.Add(-24 * time.Hour),
			IsActive:  true,
		},
	}
	router := newMarketingRouter(discounts)

	t.Run("unknown code is not found", func(t *testing.T) {
		rec := validateCode(t, router, `{"code":"NOSUCH","subtotal":100}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		rec := validateCode(t, router, `{"code":"EXPIRED","subtotal":100}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("subtotal below minimum is rejected", func(t *testing.T) {
		rec := validateCode(t, router, `{"code":"BIGSPEND","subtotal":30}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("valid percentage code reports deduction", func(t *testing.T) {
		rec := validateCode(t, router, `{"code":"SUMMER10","subtotal":100}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp ValidateDiscountResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Valid {
			t.Error("expected code to be valid")
		}
		if resp.Deduction != 10.0 {
			t.Errorf("expected deduction 10.0, got %v", resp.Deduction)
		}
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		rec := validateCode(t, router, `{"code":"summer10","subtotal":100}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

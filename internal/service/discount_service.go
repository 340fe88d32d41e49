package service

import (
	"context"
	"fmt"
	"time"

	"mercato/internal/domain"
	"mercato/internal/repository"
)

// DiscountService evaluates coupon codes against an order subtotal.
// An unknown, inactive, expired, exhausted or below-minimum code is not an
// error: it evaluates to a zero deduction so checkout proceeds without it.
type DiscountService interface {
	Evaluate(ctx context.Context, code string, subtotal float64) (deduction float64, applied *domain.Discount, err error)
}

type discountService struct {
	discountRepo repository.DiscountRepository
}

// NewDiscountService creates a new instance of DiscountService
func NewDiscountService(discountRepo repository.DiscountRepository) DiscountService {
	return &discountService{discountRepo: discountRepo}
}

func (s *discountService) Evaluate(ctx context.Context, code string, subtotal float64) (float64, *domain.Discount, error) {
	if code == "" {
		return 0, nil, nil
	}

	discount, err := s.discountRepo.FindByCode(ctx, code)
	if err != nil {
		if err == repository.ErrDiscountNotFound {
			return 0, nil, nil
		}
		return 0, nil, fmt.Errorf("failed to look up discount: %w", err)
	}

	deduction := Deduction(discount, subtotal, time.Now())
	if deduction == 0 {
		return 0, nil, nil
	}
	return deduction, discount, nil
}

// Deduction computes the amount a discount removes from the given subtotal at
// the given time. A discount that is not redeemable, or whose minimum order
// amount exceeds the subtotal, deducts nothing. A fixed discount never deducts
// more than the subtotal.
func Deduction(d *domain.Discount, subtotal float64, now time.Time) float64 {
	if d == nil || !d.Redeemable(now) {
		return 0
	}
	if d.MinOrderAmount != nil && subtotal < *d.MinOrderAmount {
		return 0
	}

	switch d.Type {
	case domain.DiscountTypePercentage:
		return roundMoney(subtotal * d.Value / 100)
	case domain.DiscountTypeFixed:
		if d.Value > subtotal {
			return subtotal
		}
		return d.Value
	}
	return 0
}

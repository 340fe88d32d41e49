package transport

import (
	"net/http"
	"time"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/repository"
	"mercato/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscribeRequest represents a newsletter subscribe or unsubscribe payload
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// DiscountRequest represents a discount create or update payload
type DiscountRequest struct {
	Code           string    `json:"code" validate:"required"`
	Description    string    `json:"description"`
	Type           string    `json:"type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value          float64   `json:"value" validate:"required,gt=0"`
	MinOrderAmount *float64  `json:"min_order_amount" validate:"omitempty,gt=0"`
	MaxUses        *int      `json:"max_uses" validate:"omitempty,gt=0"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	IsActive       *bool     `json:"is_active"`
}

// ValidateDiscountRequest represents checking a code against a subtotal
type ValidateDiscountRequest struct {
	Code     string  `json:"code" validate:"required"`
	Subtotal float64 `json:"subtotal" validate:"required,gt=0"`
}

// ValidateDiscountResponse reports what the code would deduct
type ValidateDiscountResponse struct {
	Valid     bool    `json:"valid"`
	Deduction float64 `json:"deduction"`
}

// MarketingHandler handles HTTP requests for newsletter and discounts
type MarketingHandler struct {
	newsletterRepo repository.NewsletterRepository
	discountRepo   repository.DiscountRepository
	logger         *zap.Logger
}

// NewMarketingHandler creates a new MarketingHandler
func NewMarketingHandler(
	newsletterRepo repository.NewsletterRepository,
	discountRepo repository.DiscountRepository,
	logger *zap.Logger,
) *MarketingHandler {
	return &MarketingHandler{
		newsletterRepo: newsletterRepo,
		discountRepo:   discountRepo,
		logger:         logger,
	}
}

// RegisterRoutes registers newsletter and discount routes
func (h *MarketingHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/newsletter", func(r chi.Router) {
		r.Post("/subscribe", h.Subscribe)
		r.Post("/unsubscribe", h.Unsubscribe)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(staffMiddleware)
			r.Get("/subscribers", h.ListSubscribers)
		})
	})

	r.Route("/api/discounts", func(r chi.Router) {
		r.Post("/validate", h.ValidateCode)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(staffMiddleware)
			r.Get("/", h.ListDiscounts)
			r.Post("/", h.CreateDiscount)
			r.Put("/{id}", h.UpdateDiscount)
			r.Delete("/{id}", h.DeleteDiscount)
		})
	})
}

// Subscribe handles a newsletter signup. Re-subscribing a deactivated email
// reactivates it; subscribing an active one conflicts.
func (h *MarketingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.newsletterRepo.FindByEmail(r.Context(), req.Email)
	if err != nil && err != repository.ErrSubscriberNotFound {
		h.logger.Error("Failed to check subscriber", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	if existing != nil {
		if existing.IsActive {
			middleware.RespondWithError(w, http.StatusConflict, "email is already subscribed")
			return
		}
		if err := h.newsletterRepo.Reactivate(r.Context(), req.Email); err != nil {
			h.logger.Error("Failed to reactivate subscriber", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to subscribe")
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "subscription reactivated"})
		return
	}

	subscriber := &domain.NewsletterSubscriber{Email: req.Email}
	if err := h.newsletterRepo.Create(r.Context(), subscriber); err != nil {
		h.logger.Error("Failed to create subscriber", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "subscribed"})
}

// Unsubscribe handles a newsletter opt-out
func (h *MarketingHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.newsletterRepo.Deactivate(r.Context(), req.Email); err != nil {
		if err == repository.ErrSubscriberNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "email is not subscribed")
			return
		}
		h.logger.Error("Failed to unsubscribe", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to unsubscribe")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "unsubscribed"})
}

// ListSubscribers handles listing active newsletter subscribers
func (h *MarketingHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.newsletterRepo.ListActive(r.Context())
	if err != nil {
		h.logger.Error("Failed to list subscribers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list subscribers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, subscribers)
}

// ValidateCode reports what a discount code would deduct from a subtotal.
// An unknown or ineligible code is not an error; it is simply not valid.
func (h *MarketingHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req ValidateDiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	discount, err := h.discountRepo.FindByCode(r.Context(), req.Code)
	if err != nil {
		if err == repository.ErrDiscountNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "discount code not found")
			return
		}
		h.logger.Error("Failed to validate discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to validate discount")
		return
	}

	if !discount.Redeemable(time.Now()) {
		middleware.RespondWithError(w, http.StatusBadRequest, "discount code is not valid")
		return
	}

	deduction := service.Deduction(discount, req.Subtotal, time.Now())
	if deduction == 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "order subtotal does not meet the discount minimum")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ValidateDiscountResponse{
		Valid:     deduction > 0,
		Deduction: deduction,
	})
}

// ListDiscounts handles discount listing
func (h *MarketingHandler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discountRepo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list discounts")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// CreateDiscount handles discount creation
func (h *MarketingHandler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.EndDate.After(req.StartDate) {
		middleware.RespondWithError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	discount := discountFromRequest(&req)
	discount.ID = uuid.New()
	discount.CreatedAt = time.Now()

	if err := h.discountRepo.Create(r.Context(), discount); err != nil {
		if err == repository.ErrDiscountAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "discount with this code already exists")
			return
		}
		h.logger.Error("Failed to create discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create discount")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, discount)
}

// UpdateDiscount handles discount updates
func (h *MarketingHandler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount ID")
		return
	}

	var req DiscountRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.EndDate.After(req.StartDate) {
		middleware.RespondWithError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	discount := discountFromRequest(&req)
	discount.ID = id

	if err := h.discountRepo.Update(r.Context(), discount); err != nil {
		switch err {
		case repository.ErrDiscountNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
		case repository.ErrDiscountAlreadyExists:
			middleware.RespondWithError(w, http.StatusConflict, "discount with this code already exists")
		default:
			h.logger.Error("Failed to update discount", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update discount")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discount)
}

// DeleteDiscount handles discount deletion
func (h *MarketingHandler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid discount ID")
		return
	}

	if err := h.discountRepo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrDiscountNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "discount not found")
			return
		}
		h.logger.Error("Failed to delete discount", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete discount")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func discountFromRequest(req *DiscountRequest) *domain.Discount {
	discount := &domain.Discount{
		Code:           req.Code,
		Description:    req.Description,
		Type:           domain.DiscountType(req.Type),
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxUses:        req.MaxUses,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsActive:       true,
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	return discount
}

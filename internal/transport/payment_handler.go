package transport

import (
	"net/http"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/payment"
	"mercato/internal/repository"
	"mercato/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InitiatePaymentRequest represents opening a payment attempt on an order
type InitiatePaymentRequest struct {
	OrderID        string `json:"order_id" validate:"required,uuid"`
	Method         string `json:"method" validate:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// ConfirmPaymentRequest represents confirming a payment with its provider.
// ProviderRef is the provider-side id: the payment intent id for Stripe, the
// capture or authorization id for the payload-based providers.
type ConfirmPaymentRequest struct {
	OrderID     string `json:"order_id" validate:"required,uuid"`
	ProviderRef string `json:"provider_ref"`
}

// PaymentHandler handles HTTP requests for payments
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// RegisterRoutes registers all payment routes; every route requires auth
func (h *PaymentHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Initiate)
		r.Post("/confirm", h.Confirm)
	})
}

// Initiate handles opening a payment attempt with a provider
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req InitiatePaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	method := domain.PaymentMethod(req.Method)
	if !method.Valid() {
		middleware.RespondWithError(w, http.StatusBadRequest, "unsupported payment method")
		return
	}

	initiation, err := h.paymentService.Initiate(r.Context(), userID, role, orderID, method, req.IdempotencyKey)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrOrderAccessDenied:
			middleware.RespondWithError(w, http.StatusForbidden, "access denied")
		case service.ErrPaymentAlreadyCompleted:
			middleware.RespondWithError(w, http.StatusConflict, "order already has a completed payment")
		case payment.ErrUnsupportedMethod:
			middleware.RespondWithError(w, http.StatusBadRequest, "unsupported payment method")
		default:
			h.logger.Error("Failed to initiate payment", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to initiate payment")
		}
		return
	}

	h.logger.Info("Payment initiated",
		zap.String("order_id", orderID.String()),
		zap.String("method", string(method)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, initiation)
}

// Confirm handles checking a payment with its provider and completing it
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ConfirmPaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	record, err := h.paymentService.Confirm(r.Context(), userID, role, orderID, req.ProviderRef)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case repository.ErrPaymentNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "payment not found")
		case service.ErrOrderAccessDenied:
			middleware.RespondWithError(w, http.StatusForbidden, "access denied")
		case service.ErrPaymentNotSucceeded:
			middleware.RespondWithError(w, http.StatusConflict, "payment has not succeeded at provider")
		case payment.ErrHandleNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "payment not found at provider")
		default:
			h.logger.Error("Failed to confirm payment", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to confirm payment")
		}
		return
	}

	h.logger.Info("Payment confirmed",
		zap.String("order_id", orderID.String()),
		zap.String("payment_id", record.ID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, record)
}

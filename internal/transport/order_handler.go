package transport

import (
	"net/http"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/repository"
	"mercato/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	ShippingAddressID string  `json:"shipping_address_id" validate:"required,uuid"`
	BillingAddressID  string  `json:"billing_address_id" validate:"required,uuid"`
	CarrierID         *string `json:"carrier_id" validate:"omitempty,uuid"`
	DiscountCode      string  `json:"discount_code"`
}

// UpdateOrderStatusRequest represents a staff order status change
type UpdateOrderStatusRequest struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"tracking_number"`
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers all order routes; every route requires auth and
// status changes are staff only
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(staffMiddleware)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
	})
}

// Create handles checkout: it turns the caller's cart into an order
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input, err := createOrderInput(&req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.Create(r.Context(), userID, input)
	if err != nil {
		switch err {
		case service.ErrEmptyCart:
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
		case repository.ErrAddressNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "address not found")
		case repository.ErrCarrierNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "carrier not found")
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "a cart product is no longer available")
		case repository.ErrInsufficientStock:
			middleware.RespondWithError(w, http.StatusBadRequest, "insufficient stock")
		default:
			h.logger.Error("Failed to create order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// List handles order listing; customers see their own orders only
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, pageSize := parsePagination(r)

	var status *domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.OrderStatus(v)
		if !s.Valid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
			return
		}
		status = &s
	}

	orders, total, err := h.orderService.List(r.Context(), userID, role, status, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, PaginatedResponse{
		Data:     orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// Get handles fetching a single order
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.Get(r.Context(), userID, role, orderID)
	if err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case service.ErrOrderAccessDenied:
			middleware.RespondWithError(w, http.StatusForbidden, "access denied")
		default:
			h.logger.Error("Failed to get order", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateStatus handles a staff order status change
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), orderID, service.UpdateOrderStatusInput{
		Status:         domain.OrderStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		switch err {
		case service.ErrInvalidStatus:
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		case repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Error("Failed to update order status", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func createOrderInput(req *CreateOrderRequest) (service.CreateOrderInput, error) {
	shippingID, err := uuid.Parse(req.ShippingAddressID)
	if err != nil {
		return service.CreateOrderInput{}, err
	}
	billingID, err := uuid.Parse(req.BillingAddressID)
	if err != nil {
		return service.CreateOrderInput{}, err
	}

	input := service.CreateOrderInput{
		ShippingAddressID: shippingID,
		BillingAddressID:  billingID,
		DiscountCode:      req.DiscountCode,
	}
	if req.CarrierID != nil {
		carrierID, err := uuid.Parse(*req.CarrierID)
		if err != nil {
			return service.CreateOrderInput{}, err
		}
		input.CarrierID = &carrierID
	}
	return input, nil
}

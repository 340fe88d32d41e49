package transport

import (
	"net/http"
	"time"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CarrierRequest represents a carrier create or update payload
type CarrierRequest struct {
	Name          string  `json:"name" validate:"required"`
	Code          string  `json:"code" validate:"required"`
	Website       string  `json:"website" validate:"omitempty,url"`
	TrackingURL   string  `json:"tracking_url" validate:"omitempty,url"`
	ShippingCost  float64 `json:"shipping_cost" validate:"gte=0"`
	EstimatedDays int     `json:"estimated_days" validate:"gte=0"`
	IsActive      *bool   `json:"is_active"`
}

// CarrierHandler handles HTTP requests for shipping carriers
type CarrierHandler struct {
	carrierRepo repository.CarrierRepository
	logger      *zap.Logger
}

// NewCarrierHandler creates a new CarrierHandler
func NewCarrierHandler(carrierRepo repository.CarrierRepository, logger *zap.Logger) *CarrierHandler {
	return &CarrierHandler{carrierRepo: carrierRepo, logger: logger}
}

// RegisterRoutes registers all carrier routes. Listing active carriers is
// public so the storefront can offer shipping choices at checkout.
func (h *CarrierHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/carriers", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(staffMiddleware)
			r.Get("/{id}", h.Get)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles carrier listing; anonymous callers only see active carriers
func (h *CarrierHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if _, role, ok := currentUser(r); ok && (role == domain.RoleAdmin || role == domain.RoleManager) {
		activeOnly = r.URL.Query().Get("active") == "true"
	}

	carriers, err := h.carrierRepo.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list carriers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list carriers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, carriers)
}

// Get handles fetching a single carrier
func (h *CarrierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid carrier ID")
		return
	}

	carrier, err := h.carrierRepo.FindByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrCarrierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "carrier not found")
			return
		}
		h.logger.Error("Failed to get carrier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get carrier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, carrier)
}

// Create handles carrier creation
func (h *CarrierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CarrierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	carrier := carrierFromRequest(&req)
	carrier.ID = uuid.New()
	carrier.CreatedAt = time.Now()

	if err := h.carrierRepo.Create(r.Context(), carrier); err != nil {
		h.logger.Error("Failed to create carrier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create carrier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, carrier)
}

// Update handles carrier updates
func (h *CarrierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid carrier ID")
		return
	}

	var req CarrierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	carrier := carrierFromRequest(&req)
	carrier.ID = id

	if err := h.carrierRepo.Update(r.Context(), carrier); err != nil {
		if err == repository.ErrCarrierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "carrier not found")
			return
		}
		h.logger.Error("Failed to update carrier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update carrier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, carrier)
}

// Delete handles carrier deletion
func (h *CarrierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid carrier ID")
		return
	}

	if err := h.carrierRepo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrCarrierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "carrier not found")
			return
		}
		h.logger.Error("Failed to delete carrier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete carrier")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func carrierFromRequest(req *CarrierRequest) *domain.Carrier {
	carrier := &domain.Carrier{
		Name:          req.Name,
		Code:          req.Code,
		Website:       req.Website,
		TrackingURL:   req.TrackingURL,
		ShippingCost:  req.ShippingCost,
		EstimatedDays: req.EstimatedDays,
		IsActive:      true,
	}
	if req.IsActive != nil {
		carrier.IsActive = *req.IsActive
	}
	return carrier
}

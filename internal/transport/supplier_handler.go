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

// SupplierRequest represents a supplier create or update payload
type SupplierRequest struct {
	Name          string `json:"name" validate:"required"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Website       string `json:"website" validate:"omitempty,url"`
	ContactPerson string `json:"contact_person"`
	Notes         string `json:"notes"`
	IsActive      *bool  `json:"is_active"`
}

// SupplierHandler handles HTTP requests for suppliers
type SupplierHandler struct {
	supplierRepo repository.SupplierRepository
	logger       *zap.Logger
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierRepo repository.SupplierRepository, logger *zap.Logger) *SupplierHandler {
	return &SupplierHandler{supplierRepo: supplierRepo, logger: logger}
}

// RegisterRoutes registers all supplier routes; suppliers are back-office
// data, visible to staff only.
func (h *SupplierHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/suppliers", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(staffMiddleware)
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles supplier listing
func (h *SupplierHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	suppliers, err := h.supplierRepo.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("Failed to list suppliers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list suppliers")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, suppliers)
}

// Get handles fetching a single supplier
func (h *SupplierHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	supplier, err := h.supplierRepo.FindByID(r.Context(), id)
	if err != nil {
		if err == repository.ErrSupplierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "supplier not found")
			return
		}
		h.logger.Error("Failed to get supplier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get supplier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, supplier)
}

// Create handles supplier creation
func (h *SupplierHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SupplierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	supplier := supplierFromRequest(&req)
	supplier.ID = uuid.New()
	supplier.CreatedAt = time.Now()

	if err := h.supplierRepo.Create(r.Context(), supplier); err != nil {
		h.logger.Error("Failed to create supplier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create supplier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, supplier)
}

// Update handles supplier updates
func (h *SupplierHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	var req SupplierRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	supplier := supplierFromRequest(&req)
	supplier.ID = id

	if err := h.supplierRepo.Update(r.Context(), supplier); err != nil {
		if err == repository.ErrSupplierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "supplier not found")
			return
		}
		h.logger.Error("Failed to update supplier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update supplier")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, supplier)
}

// Delete handles supplier deletion
func (h *SupplierHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid supplier ID")
		return
	}

	if err := h.supplierRepo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrSupplierNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "supplier not found")
			return
		}
		h.logger.Error("Failed to delete supplier", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete supplier")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func supplierFromRequest(req *SupplierRequest) *domain.Supplier {
	supplier := &domain.Supplier{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Website:       req.Website,
		ContactPerson: req.ContactPerson,
		Notes:         req.Notes,
		IsActive:      true,
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	return supplier
}

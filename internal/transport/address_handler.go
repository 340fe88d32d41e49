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

// AddressRequest represents an address create payload
type AddressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	IsDefault  bool   `json:"is_default"`
}

// AddressHandler handles HTTP requests for user addresses
type AddressHandler struct {
	addressRepo repository.AddressRepository
	logger      *zap.Logger
}

// NewAddressHandler creates a new AddressHandler
func NewAddressHandler(addressRepo repository.AddressRepository, logger *zap.Logger) *AddressHandler {
	return &AddressHandler{addressRepo: addressRepo, logger: logger}
}

// RegisterRoutes registers all address routes; every route requires auth
func (h *AddressHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/addresses", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles listing the caller's addresses
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	addresses, err := h.addressRepo.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list addresses", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list addresses")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, addresses)
}

// Create handles adding an address for the caller
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddressRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	address := &domain.Address{
		ID:         uuid.New(),
		UserID:     userID,
		Label:      req.Label,
		Street:     req.Street,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		IsDefault:  req.IsDefault,
		CreatedAt:  time.Now(),
	}

	if err := h.addressRepo.Create(r.Context(), address); err != nil {
		h.logger.Error("Failed to create address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create address")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, address)
}

// Delete handles removing one of the caller's addresses
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	if err := h.addressRepo.Delete(r.Context(), id, userID); err != nil {
		if err == repository.ErrAddressNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "address not found")
			return
		}
		h.logger.Error("Failed to delete address", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete address")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

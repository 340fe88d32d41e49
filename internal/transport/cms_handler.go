package transport

import (
	"net/http"

	"mercato/internal/domain"
	"mercato/internal/middleware"
	"mercato/internal/repository"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CMSPageRequest represents a content page create or update payload
type CMSPageRequest struct {
	Title           string `json:"title" validate:"required"`
	Content         string `json:"content" validate:"required"`
	MetaTitle       string `json:"meta_title"`
	MetaDescription string `json:"meta_description"`
	IsPublished     *bool  `json:"is_published"`
}

// CMSHandler handles HTTP requests for content pages
type CMSHandler struct {
	cmsRepo repository.CMSRepository
	logger  *zap.Logger
}

// NewCMSHandler creates a new CMSHandler
func NewCMSHandler(cmsRepo repository.CMSRepository, logger *zap.Logger) *CMSHandler {
	return &CMSHandler{cmsRepo: cmsRepo, logger: logger}
}

// RegisterRoutes registers all content page routes. Public readers fetch
// published pages by slug; staff manage the full set.
func (h *CMSHandler) RegisterRoutes(r chi.Router, authMiddleware, staffMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/pages", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{slug}", h.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(staffMiddleware)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles page listing; anonymous callers only see published pages
func (h *CMSHandler) List(w http.ResponseWriter, r *http.Request) {
	publishedOnly := true
	if _, role, ok := currentUser(r); ok && (role == domain.RoleAdmin || role == domain.RoleManager) {
		publishedOnly = false
	}

	pages, err := h.cmsRepo.List(r.Context(), publishedOnly)
	if err != nil {
		h.logger.Error("Failed to list pages", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list pages")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, pages)
}

// GetBySlug handles fetching a published page by its slug
func (h *CMSHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	page, err := h.cmsRepo.FindBySlug(r.Context(), slug)
	if err != nil {
		if err == repository.ErrPageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "page not found")
			return
		}
		h.logger.Error("Failed to get page", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get page")
		return
	}

	if !page.IsPublished {
		if _, role, ok := currentUser(r); !ok || (role != domain.RoleAdmin && role != domain.RoleManager) {
			middleware.RespondWithError(w, http.StatusNotFound, "page not found")
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Create handles page creation
func (h *CMSHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CMSPageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page := pageFromRequest(&req)

	if err := h.cmsRepo.Create(r.Context(), page); err != nil {
		if err == repository.ErrPageSlugTaken {
			middleware.RespondWithError(w, http.StatusConflict, "page with this title already exists")
			return
		}
		h.logger.Error("Failed to create page", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create page")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, page)
}

// Update handles page updates
func (h *CMSHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid page ID")
		return
	}

	var req CMSPageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page := pageFromRequest(&req)
	page.ID = id

	if err := h.cmsRepo.Update(r.Context(), page); err != nil {
		switch err {
		case repository.ErrPageNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "page not found")
		case repository.ErrPageSlugTaken:
			middleware.RespondWithError(w, http.StatusConflict, "page with this title already exists")
		default:
			h.logger.Error("Failed to update page", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update page")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Delete handles page deletion
func (h *CMSHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid page ID")
		return
	}

	if err := h.cmsRepo.Delete(r.Context(), id); err != nil {
		if err == repository.ErrPageNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "page not found")
			return
		}
		h.logger.Error("Failed to delete page", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete page")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pageFromRequest(req *CMSPageRequest) *domain.CMSPage {
	page := &domain.CMSPage{
		Title:           req.Title,
		Slug:            domain.Slugify(req.Title),
		Content:         req.Content,
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
	}
	if req.IsPublished != nil {
		page.IsPublished = *req.IsPublished
	}
	return page
}

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/exptrack/exptrack/internal/auth"
	"github.com/exptrack/exptrack/internal/handler/dto"
	"github.com/exptrack/exptrack/internal/middleware"
	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/service"
)

// CategoryManager manages a user's categories.
type CategoryManager interface {
	AddCategory(ctx context.Context, userID, name string) (*model.Category, error)
	ListCategories(ctx context.Context, userID string) ([]*model.Category, error)
	DeleteCategory(ctx context.Context, userID, name string) error
}

// CategoryHandler handles HTTP requests for category operations.
type CategoryHandler struct {
	svc    CategoryManager
	logger *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc CategoryManager, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := middleware.ValidateCategoryName(req.Name); err != nil {
		writeFieldError(w, "name", err)
		return
	}

	userID := auth.MustUserIDFromContext(r.Context())
	category, err := h.svc.AddCategory(r.Context(), userID, req.Name)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("category_created",
		"category_id", category.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(category))
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustUserIDFromContext(r.Context())

	categories, err := h.svc.ListCategories(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCategoryListResponse(categories))
}

// Delete handles DELETE /api/categories/{name}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name, err := categoryNameParam(r)
	if err != nil || name == "" {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}

	userID := auth.MustUserIDFromContext(r.Context())
	if err := h.svc.DeleteCategory(r.Context(), userID, name); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("category_deleted", "user_id", userID)

	writeMessage(w, http.StatusOK, "Category removed")
}

// categoryNameParam returns the decoded {name} segment. chi matches on the
// already decoded r.URL.Path unless the request carried a RawPath.
func categoryNameParam(r *http.Request) (string, error) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name, nil
	}
	return url.PathUnescape(name)
}

// handleServiceError maps service errors to HTTP responses.
func (h *CategoryHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNameRequired):
		writeFieldError(w, "name", middleware.ErrCategoryNameRequired)
	case errors.Is(err, service.ErrCategoryExists):
		writeMessage(w, http.StatusBadRequest, "Category already exists")
	case errors.Is(err, service.ErrCategoryNotFound):
		writeMessage(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrCategoryInUse):
		writeMessage(w, http.StatusBadRequest, "Category is used in expenses")
	default:
		writeInternalError(w, r, h.logger, err)
	}
}

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/exptrack/exptrack/internal/auth"
	"github.com/exptrack/exptrack/internal/handler/dto"
	"github.com/exptrack/exptrack/internal/middleware"
	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/service"
)

// ExpenseLedger records, queries and removes a user's expenses.
type ExpenseLedger interface {
	ListExpenses(ctx context.Context, input service.ListExpensesInput) (*service.ListExpensesOutput, error)
	AggregateExpenses(ctx context.Context, userID, startDate, endDate string) ([]model.CategoryTotal, error)
	CreateExpense(ctx context.Context, input service.CreateExpenseInput) (*model.Expense, error)
	UpdateExpense(ctx context.Context, input service.UpdateExpenseInput) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id, userID string) error
	BulkDeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error)
}

// ExpenseHandler handles HTTP requests for expense operations.
type ExpenseHandler struct {
	svc    ExpenseLedger
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc ExpenseLedger, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		svc:    svc,
		logger: logger,
	}
}

var (
	errPageInvalid  = errors.New("Page must be a positive integer")
	errLimitInvalid = errors.New("Limit must be a positive integer")
)

// List handles GET /api/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var errs middleware.FieldErrors
	page, err := parsePositiveInt(query.Get("page"), errPageInvalid)
	errs.Check("page", err)
	limit, err := parsePositiveInt(query.Get("limit"), errLimitInvalid)
	errs.Check("limit", err)
	if !errs.Empty() {
		writeValidationErrors(w, errs)
		return
	}

	result, err := h.svc.ListExpenses(r.Context(), service.ListExpensesInput{
		UserID:    auth.MustUserIDFromContext(r.Context()),
		Filter:    query.Get("filter"),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
		Category:  query.Get("category"),
		Page:      page,
		Limit:     limit,
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExpenseListResponse(result.Expenses, result.Total, result.Page, result.Limit))
}

// Analytics handles GET /api/expenses/analytics.
func (h *ExpenseHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	totals, err := h.svc.AggregateExpenses(r.Context(),
		auth.MustUserIDFromContext(r.Context()),
		query.Get("startDate"),
		query.Get("endDate"),
	)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCategoryTotalsResponse(totals))
}

// Create handles POST /api/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	var errs middleware.FieldErrors
	errs.Check("category", middleware.ValidateCategoryRef(req.Category))
	amount, err := middleware.ParseAmount(req.Amount)
	errs.Check("amount", err)
	if !errs.Empty() {
		writeValidationErrors(w, errs)
		return
	}

	userID := auth.MustUserIDFromContext(r.Context())
	expense, err := h.svc.CreateExpense(r.Context(), service.CreateExpenseInput{
		UserID:      userID,
		Category:    req.Category,
		Amount:      amount,
		Description: req.Description,
		Date:        req.Date,
		Tags:        req.Tags,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("expense_created",
		"expense_id", expense.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Update handles PUT /api/expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	input := service.UpdateExpenseInput{
		ID:          id,
		UserID:      auth.MustUserIDFromContext(r.Context()),
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
		Tags:        req.Tags,
	}

	if len(req.Amount) > 0 {
		amount, err := middleware.ParseAmount(req.Amount)
		if err != nil {
			writeFieldError(w, "amount", err)
			return
		}
		input.Amount = &amount
	}

	expense, err := h.svc.UpdateExpense(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("expense_updated",
		"expense_id", expense.ID,
		"user_id", input.UserID,
	)

	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Delete handles DELETE /api/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.MustUserIDFromContext(r.Context())

	if err := h.svc.DeleteExpense(r.Context(), id, userID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("expense_deleted", "expense_id", id, "user_id", userID)

	writeMessage(w, http.StatusOK, "Expense removed")
}

// BulkDelete handles DELETE /api/expenses.
func (h *ExpenseHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	ids, ok := req.ParseExpenseIDs()
	if !ok {
		h.handleServiceError(w, r, service.ErrNoExpenseIDs)
		return
	}

	userID := auth.MustUserIDFromContext(r.Context())
	n, err := h.svc.BulkDeleteExpenses(r.Context(), userID, ids)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("expenses_deleted", "count", n, "user_id", userID)

	writeMessage(w, http.StatusOK, fmt.Sprintf("%d expenses removed", n))
}

// handleServiceError maps service errors to HTTP responses.
func (h *ExpenseHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		writeMessage(w, http.StatusBadRequest, "Category does not exist")
	case errors.Is(err, service.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, "Invalid date format")
	case errors.Is(err, service.ErrInvalidAmount):
		writeFieldError(w, "amount", middleware.ErrAmountInvalid)
	case errors.Is(err, service.ErrInvalidFilter):
		writeMessage(w, http.StatusBadRequest, "Invalid filter")
	case errors.Is(err, service.ErrInvalidSort):
		writeMessage(w, http.StatusBadRequest, "Invalid sort field")
	case errors.Is(err, service.ErrExpenseNotFound):
		writeMessage(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, service.ErrNotOwner):
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
	case errors.Is(err, service.ErrNoExpenseIDs):
		writeMessage(w, http.StatusBadRequest, "Provide an array of expense IDs")
	case errors.Is(err, service.ErrNoExpensesDeleted):
		writeMessage(w, http.StatusNotFound, "No expenses found")
	default:
		writeInternalError(w, r, h.logger, err)
	}
}

// parsePositiveInt returns 0 for an empty value so the service default applies.
func parsePositiveInt(raw string, invalid error) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalid
	}
	return n, nil
}

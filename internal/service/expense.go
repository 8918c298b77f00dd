package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/exptrack/exptrack/internal/metrics"
	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/repository"
)

// Time windows accepted by ListExpenses.
const (
	FilterWeek        = "week"
	FilterMonth       = "month"
	FilterThreeMonths = "three_months"
	FilterCustom      = "custom"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

const defaultSortField = "date"

// maxAmount is the exclusive upper bound of a NUMERIC(14,2) amount.
const maxAmount = 1e12

// ExpenseService manages the expense ledger.
type ExpenseService struct {
	expenses   ExpenseStore
	categories CategoryStore
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(expenses ExpenseStore, categories CategoryStore, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{
		expenses:   expenses,
		categories: categories,
		metrics:    recorder,
		now:        time.Now,
	}
}

// ListExpensesInput defines input for listing expenses.
// Zero Page and Limit select the defaults.
type ListExpensesInput struct {
	UserID    string
	Filter    string
	StartDate string
	EndDate   string
	Category  string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// ListExpensesOutput is one page of expenses plus the total match count.
type ListExpensesOutput struct {
	Expenses []*model.Expense
	Total    int64
	Page     int
	Limit    int
}

// ListExpenses returns a filtered, sorted page of the user's expenses.
func (s *ExpenseService) ListExpenses(ctx context.Context, input ListExpensesInput) (*ListExpensesOutput, error) {
	start := s.now()
	defer func() {
		s.metrics.ObserveExpenseQueryDuration(time.Since(start))
	}()

	filter := repository.ExpenseFilter{
		UserID:   input.UserID,
		Category: strings.TrimSpace(input.Category),
	}
	from, to, err := s.window(input.Filter, input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = from, to

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = defaultSortField
	}
	if !repository.IsSortField(sortBy) {
		return nil, ErrInvalidSort
	}
	sort := repository.ExpenseSort{
		Field: sortBy,
		Desc:  input.SortOrder == "" || input.SortOrder == "desc",
	}

	page, limit := normalizePage(input.Page, input.Limit)

	expenses, err := s.expenses.ListExpenses(ctx, filter, sort, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.expenses.CountExpenses(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListExpensesOutput{
		Expenses: expenses,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}

// window resolves a named time window into date bounds relative to now.
func (s *ExpenseService) window(filter, startDate, endDate string) (*time.Time, *time.Time, error) {
	now := s.now().UTC()
	var from time.Time

	switch filter {
	case "":
		return nil, nil, nil
	case FilterWeek:
		from = now.AddDate(0, 0, -7)
	case FilterMonth:
		from = now.AddDate(0, -1, 0)
	case FilterThreeMonths:
		from = now.AddDate(0, -3, 0)
	case FilterCustom:
		// Applied only when both ends are given.
		if strings.TrimSpace(startDate) == "" || strings.TrimSpace(endDate) == "" {
			return nil, nil, nil
		}
		lo, err := parseDayBound(startDate, false)
		if err != nil {
			return nil, nil, err
		}
		hi, err := parseDayBound(endDate, true)
		if err != nil {
			return nil, nil, err
		}
		return lo, hi, nil
	default:
		return nil, nil, ErrInvalidFilter
	}

	return &from, nil, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// AggregateExpenses sums the user's expenses per category, largest total first.
// Each bound is optional: startDate snaps to the start of its day, endDate to the end.
func (s *ExpenseService) AggregateExpenses(ctx context.Context, userID, startDate, endDate string) ([]model.CategoryTotal, error) {
	from, err := parseDayBound(startDate, false)
	if err != nil {
		return nil, err
	}
	to, err := parseDayBound(endDate, true)
	if err != nil {
		return nil, err
	}
	return s.expenses.AggregateByCategory(ctx, userID, from, to)
}

// CreateExpenseInput defines input for recording an expense.
type CreateExpenseInput struct {
	UserID      string
	Category    string
	Amount      float64
	Description string
	Date        string // empty means now
	Tags        []string
}

// CreateExpense records a new expense in one of the user's categories.
func (s *ExpenseService) CreateExpense(ctx context.Context, input CreateExpenseInput) (*model.Expense, error) {
	category := strings.TrimSpace(input.Category)
	if err := s.checkCategory(ctx, input.UserID, category); err != nil {
		return nil, err
	}
	amount := roundAmount(input.Amount)
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	now := s.now().UTC()
	date := now
	if strings.TrimSpace(input.Date) != "" {
		parsed, err := ParseDate(input.Date)
		if err != nil {
			return nil, err
		}
		date = parsed
	}

	expense := &model.Expense{
		ID:          newID(),
		UserID:      input.UserID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		Tags:        cleanTags(input.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.expenses.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.metrics.IncExpenseCreated()
	return expense, nil
}

// UpdateExpenseInput defines a partial update. Nil fields are left untouched.
type UpdateExpenseInput struct {
	ID          string
	UserID      string
	Category    *string
	Amount      *float64
	Description *string
	Date        *string
	Tags        *[]string
}

// UpdateExpense applies the supplied fields to an expense owned by the caller.
func (s *ExpenseService) UpdateExpense(ctx context.Context, input UpdateExpenseInput) (*model.Expense, error) {
	expense, err := s.ownedExpense(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		if err := s.checkCategory(ctx, input.UserID, category); err != nil {
			return nil, err
		}
		expense.Category = category
	}

	if input.Date != nil {
		date, err := ParseDate(*input.Date)
		if err != nil {
			return nil, err
		}
		expense.Date = date
	}

	if input.Amount != nil {
		amount := roundAmount(*input.Amount)
		if !validAmount(amount) {
			return nil, ErrInvalidAmount
		}
		expense.Amount = amount
	}

	if input.Description != nil {
		expense.Description = strings.TrimSpace(*input.Description)
	}

	if input.Tags != nil {
		expense.Tags = cleanTags(*input.Tags)
	}

	expense.UpdatedAt = s.now().UTC()

	if err := s.expenses.UpdateExpense(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	s.metrics.IncExpenseUpdated()
	return expense, nil
}

// DeleteExpense removes an expense owned by the caller.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id, userID string) error {
	if _, err := s.ownedExpense(ctx, id, userID); err != nil {
		return err
	}

	if err := s.expenses.DeleteExpense(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return ErrExpenseNotFound
		}
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	s.metrics.IncExpensesDeleted(1)
	return nil
}

// BulkDeleteExpenses removes the listed expenses owned by the caller.
// IDs of other users' expenses are skipped silently.
func (s *ExpenseService) BulkDeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return 0, ErrNoExpenseIDs
	}

	n, err := s.expenses.DeleteExpenses(ctx, userID, cleaned)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoExpensesDeleted
	}

	s.metrics.IncExpensesDeleted(n)
	return n, nil
}

// ownedExpense loads an expense and checks the caller owns it.
func (s *ExpenseService) ownedExpense(ctx context.Context, id, userID string) (*model.Expense, error) {
	expense, err := s.expenses.GetExpenseByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	if !model.OwnedBy(expense, userID) {
		return nil, ErrNotOwner
	}
	return expense, nil
}

func (s *ExpenseService) checkCategory(ctx context.Context, userID, name string) error {
	if name == "" {
		return ErrInvalidCategory
	}
	ok, err := categoryExists(ctx, s.categories, userID, name)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCategory
	}
	return nil
}

func validAmount(a float64) bool {
	return a >= 0 && a < maxAmount && !math.IsInf(a, 0) && !math.IsNaN(a)
}

// roundAmount rounds to cents, matching what the amount column stores.
func roundAmount(a float64) float64 {
	return math.Round(a*100) / 100
}

// cleanTags trims each tag and drops empty ones, keeping order.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/notify"
	"github.com/exptrack/exptrack/internal/repository"
)

// Service errors.
var (
	ErrEmailExists        = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrCategoryNameRequired = errors.New("category name is required")
	ErrCategoryExists       = errors.New("category already exists")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryInUse        = errors.New("category is used in expenses")

	ErrInvalidCategory   = errors.New("category does not exist")
	ErrInvalidDate       = errors.New("invalid date format")
	ErrInvalidAmount     = errors.New("amount must be a non-negative number")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidSort       = errors.New("invalid sort field")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrNotOwner          = errors.New("not authorized")
	ErrNoExpenseIDs      = errors.New("no expense IDs provided")
	ErrNoExpensesDeleted = errors.New("no expenses found")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// CategoryStore persists per-user categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, userID, name string) (*model.Category, error)
	ListCategories(ctx context.Context, userID string) ([]*model.Category, error)
	DeleteCategory(ctx context.Context, userID, name string) error
	CategoryInUse(ctx context.Context, userID, name string) (bool, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, filter repository.ExpenseFilter, sort repository.ExpenseSort, offset, limit int) ([]*model.Expense, error)
	CountExpenses(ctx context.Context, filter repository.ExpenseFilter) (int64, error)
	UpdateExpense(ctx context.Context, e *model.Expense) error
	DeleteExpense(ctx context.Context, id, userID string) error
	DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error)
	AggregateByCategory(ctx context.Context, userID string, from, to *time.Time) ([]model.CategoryTotal, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// WelcomeDispatcher sends welcome notifications without blocking.
type WelcomeDispatcher interface {
	DispatchAsync(w notify.Welcome)
}

// Compile-time checks.
var (
	_ UserStore     = (*repository.Repository)(nil)
	_ CategoryStore = (*repository.Repository)(nil)
	_ ExpenseStore  = (*repository.Repository)(nil)
)

func newID() string {
	return ulid.Make().String()
}

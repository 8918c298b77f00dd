package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for expense repository operations.
var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrInvalidSort     = errors.New("invalid sort field")
)

// sortColumns maps API sort fields to columns. Anything else is rejected.
var sortColumns = map[string]string{
	"date":        "date",
	"amount":      "amount",
	"category":    "category",
	"description": "description",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

// IsSortField reports whether field can be used in ExpenseSort.
func IsSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// ExpenseFilter narrows expense listing. Nil bounds are open.
type ExpenseFilter struct {
	UserID   string
	Category string
	From     *time.Time
	To       *time.Time
}

// ExpenseSort orders expense listing.
type ExpenseSort struct {
	Field string
	Desc  bool
}

const expenseColumns = `id, user_id, category, amount::float8, description, date, tags, created_at, updated_at`

// CreateExpense inserts a new expense.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, user_id, category, amount, description, date, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Category,
		e.Amount,
		e.Description,
		e.Date,
		nonNilTags(e.Tags),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetExpenseByID retrieves an expense regardless of owner; ownership is checked by the caller.
func (r *Repository) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to get expense by ID: %w", err)
	}

	return e, nil
}

// ListExpenses returns one page of the user's expenses matching filter.
func (r *Repository) ListExpenses(ctx context.Context, filter ExpenseFilter, sort ExpenseSort, offset, limit int) ([]*model.Expense, error) {
	column, ok := sortColumns[sort.Field]
	if !ok {
		return nil, ErrInvalidSort
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	where, args := buildExpenseWhere(filter)
	argIndex := len(args) + 1

	query := `SELECT ` + expenseColumns + ` FROM expenses` + where +
		fmt.Sprintf(" ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d", column, direction, direction, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*model.Expense, 0, limit)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return expenses, nil
}

// CountExpenses counts every expense matching filter, ignoring pagination.
func (r *Repository) CountExpenses(ctx context.Context, filter ExpenseFilter) (int64, error) {
	where, args := buildExpenseWhere(filter)
	query := `SELECT COUNT(*) FROM expenses` + where

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	return total, nil
}

// UpdateExpense overwrites the mutable fields of an owned expense.
func (r *Repository) UpdateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET category = $3, amount = $4, description = $5, date = $6, tags = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		e.ID,
		e.UserID,
		e.Category,
		e.Amount,
		e.Description,
		e.Date,
		nonNilTags(e.Tags),
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpense removes an owned expense.
func (r *Repository) DeleteExpense(ctx context.Context, id, userID string) error {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpenses removes the listed expenses owned by userID and returns how many were removed.
// IDs belonging to other users or not existing are skipped.
func (r *Repository) DeleteExpenses(ctx context.Context, userID string, ids []string) (int64, error) {
	query := `DELETE FROM expenses WHERE id = ANY($1) AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, ids, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete expenses: %w", err)
	}

	return result.RowsAffected(), nil
}

// AggregateByCategory sums the user's expenses per category, largest total first.
func (r *Repository) AggregateByCategory(ctx context.Context, userID string, from, to *time.Time) ([]model.CategoryTotal, error) {
	where, args := buildExpenseWhere(ExpenseFilter{UserID: userID, From: from, To: to})
	query := `
		SELECT category, SUM(amount)::float8 AS total_amount, COUNT(*)
		FROM expenses` + where + `
		GROUP BY category
		ORDER BY total_amount DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate expenses: %w", err)
	}
	defer rows.Close()

	totals := make([]model.CategoryTotal, 0)
	for rows.Next() {
		var t model.CategoryTotal
		if err := rows.Scan(&t.Category, &t.TotalAmount, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category totals: %w", err)
	}

	return totals, nil
}

func buildExpenseWhere(filter ExpenseFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{filter.UserID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	err := row.Scan(expenseScanTargets(&e)...)
	e.Tags = nonNilTags(e.Tags)
	return &e, err
}

// expenseScanTargets lists the destinations for expenseColumns, in order.
// Tags scan into *[]string, which pgx decodes from binary text[].
func expenseScanTargets(e *model.Expense) []any {
	return []any{
		&e.ID,
		&e.UserID,
		&e.Category,
		&e.Amount,
		&e.Description,
		&e.Date,
		&e.Tags,
		&e.CreatedAt,
		&e.UpdatedAt,
	}
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

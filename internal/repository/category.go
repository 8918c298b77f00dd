package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/jackc/pgx/v5"
)

// Common errors for category repository operations.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// CreateCategory inserts a new category. A duplicate (user, name) yields ErrCategoryExists.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.UserID,
		category.Name,
		category.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// GetCategory retrieves a user's category by name.
func (r *Repository) GetCategory(ctx context.Context, userID, name string) (*model.Category, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE user_id = $1 AND name = $2
	`

	var c model.Category
	err := r.pool.QueryRow(ctx, query, userID, name).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}

// ListCategories returns every category of a user, ordered by name.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	query := `
		SELECT id, user_id, name, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*model.Category, 0)
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// DeleteCategory removes a user's category by name.
func (r *Repository) DeleteCategory(ctx context.Context, userID, name string) error {
	query := `DELETE FROM categories WHERE user_id = $1 AND name = $2`

	result, err := r.pool.Exec(ctx, query, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// CategoryInUse reports whether any expense of the user references the category name.
func (r *Repository) CategoryInUse(ctx context.Context, userID, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM expenses WHERE user_id = $1 AND category = $2)`

	var inUse bool
	if err := r.pool.QueryRow(ctx, query, userID, name).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check category usage: %w", err)
	}

	return inUse, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exptrack/exptrack/internal/metrics"
	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/repository"
)

// CategoryService manages per-user categories.
type CategoryService struct {
	categories CategoryStore
	metrics    metrics.Recorder
	now        func() time.Time
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categories CategoryStore, recorder metrics.Recorder) *CategoryService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CategoryService{
		categories: categories,
		metrics:    recorder,
		now:        time.Now,
	}
}

// AddCategory registers a category name for the user.
func (s *CategoryService) AddCategory(ctx context.Context, userID, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNameRequired
	}

	// Fast path; the unique index is authoritative.
	if _, err := s.categories.GetCategory(ctx, userID, name); err == nil {
		return nil, ErrCategoryExists
	} else if !errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, err
	}

	category := &model.Category{
		ID:        newID(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}

	if err := s.categories.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.metrics.IncCategoryCreated()
	return category, nil
}

// ListCategories returns the user's categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]*model.Category, error) {
	return s.categories.ListCategories(ctx, userID)
}

// DeleteCategory removes a category unless an expense still references it.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, name string) error {
	if _, err := s.categories.GetCategory(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	inUse, err := s.categories.CategoryInUse(ctx, userID, name)
	if err != nil {
		return err
	}
	if inUse {
		return ErrCategoryInUse
	}

	if err := s.categories.DeleteCategory(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	s.metrics.IncCategoryDeleted()
	return nil
}

// categoryExists reports whether the user has registered name.
func categoryExists(ctx context.Context, categories CategoryStore, userID, name string) (bool, error) {
	if _, err := categories.GetCategory(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

package dto

import (
	"time"

	"github.com/exptrack/exptrack/internal/model"
)

// CreateCategoryRequest is the body of POST /api/categories.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToCategoryResponse converts a model.Category to CategoryResponse.
func ToCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		User:      c.UserID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

// ToCategoryListResponse converts categories, never returning nil.
func ToCategoryListResponse(categories []*model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, ToCategoryResponse(c))
	}
	return out
}

package dto

import (
	"encoding/json"
	"time"

	"github.com/exptrack/exptrack/internal/model"
)

// CreateExpenseRequest is the body of POST /api/expenses.
// Amount stays raw so numeric strings are accepted too.
type CreateExpenseRequest struct {
	Category    string          `json:"category"`
	Amount      json.RawMessage `json:"amount"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// UpdateExpenseRequest is the body of PUT /api/expenses/{id}.
// Absent fields are left unchanged.
type UpdateExpenseRequest struct {
	Category    *string         `json:"category,omitempty"`
	Amount      json.RawMessage `json:"amount,omitempty"`
	Description *string         `json:"description,omitempty"`
	Date        *string         `json:"date,omitempty"`
	Tags        *[]string       `json:"tags,omitempty"`
}

// BulkDeleteRequest is the body of DELETE /api/expenses.
type BulkDeleteRequest struct {
	ExpenseIDs json.RawMessage `json:"expenseIds"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID          string    `json:"id"`
	User        string    `json:"user"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ExpenseListResponse is one page of expenses.
type ExpenseListResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// CategoryTotalResponse is one row of GET /api/expenses/analytics.
type CategoryTotalResponse struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int64   `json:"count"`
}

// ToExpenseResponse converts a model.Expense to ExpenseResponse.
func ToExpenseResponse(e *model.Expense) ExpenseResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return ExpenseResponse{
		ID:          e.ID,
		User:        e.UserID,
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.UTC(),
		Tags:        tags,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToExpenseListResponse builds the paginated list body.
func ToExpenseListResponse(expenses []*model.Expense, total int64, page, limit int) ExpenseListResponse {
	out := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, ToExpenseResponse(e))
	}
	return ExpenseListResponse{
		Expenses: out,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}
}

// ToCategoryTotalsResponse converts aggregation rows, never returning nil.
func ToCategoryTotalsResponse(totals []model.CategoryTotal) []CategoryTotalResponse {
	out := make([]CategoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, CategoryTotalResponse{
			Category:    t.Category,
			TotalAmount: t.TotalAmount,
			Count:       t.Count,
		})
	}
	return out
}

// ParseExpenseIDs reads the expenseIds field. It reports false when the
// field is missing, not an array of strings, or empty.
func (r BulkDeleteRequest) ParseExpenseIDs() ([]string, bool) {
	if len(r.ExpenseIDs) == 0 {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(r.ExpenseIDs, &ids); err != nil || len(ids) == 0 {
		return nil, false
	}
	return ids, true
}

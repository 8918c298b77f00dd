package model

import "time"

// Expense is a single spending record.
// Category holds the category name, checked against the owner's categories on write only.
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Owner returns the owning user ID.
func (e *Expense) Owner() string {
	return e.UserID
}

// CategoryTotal is one row of the per-category aggregation.
type CategoryTotal struct {
	Category    string  `json:"category"`
	TotalAmount float64 `json:"totalAmount"`
	Count       int64   `json:"count"`
}

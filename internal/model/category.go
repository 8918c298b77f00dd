package model

import "time"

// Category is a user-scoped label that expenses reference by name.
type Category struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Owner returns the owning user ID.
func (c *Category) Owner() string {
	return c.UserID
}

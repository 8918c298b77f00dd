package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/exptrack/exptrack/internal/model"
	"github.com/exptrack/exptrack/internal/notify"
	"github.com/exptrack/exptrack/internal/repository"
)

// memStore is an in-memory UserStore, CategoryStore and ExpenseStore.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	categories map[string]*model.Category // key: userID + "/" + name
	expenses   map[string]*model.Expense
	failWith   error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[string]*model.User{},
		categories: map[string]*model.Category{},
		expenses:   map[string]*model.Expense{},
	}
}

func copyExpense(e *model.Expense) *model.Expense {
	c := *e
	c.Tags = append([]string{}, e.Tags...)
	return &c
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memStore) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memStore) CreateCategory(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.UserID + "/" + c.Name
	if _, ok := m.categories[key]; ok {
		return repository.ErrCategoryExists
	}
	cp := *c
	m.categories[key] = &cp
	return nil
}

func (m *memStore) GetCategory(_ context.Context, userID, name string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.categories[userID+"/"+name]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListCategories(_ context.Context, userID string) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Category, 0)
	for _, c := range m.categories {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) DeleteCategory(_ context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "/" + name
	if _, ok := m.categories[key]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, key)
	return nil
}

func (m *memStore) CategoryInUse(_ context.Context, userID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.expenses {
		if e.UserID == userID && e.Category == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateExpense(_ context.Context, e *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.expenses[e.ID] = copyExpense(e)
	return nil
}

func (m *memStore) GetExpenseByID(_ context.Context, id string) (*model.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok {
		return nil, repository.ErrExpenseNotFound
	}
	return copyExpense(e), nil
}

func (m *memStore) match(filter repository.ExpenseFilter) []*model.Expense {
	out := make([]*model.Expense, 0)
	for _, e := range m.expenses {
		if e.UserID != filter.UserID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.From != nil && e.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Date.After(*filter.To) {
			continue
		}
		out = append(out, copyExpense(e))
	}
	return out
}

func (m *memStore) ListExpenses(_ context.Context, filter repository.ExpenseFilter, s repository.ExpenseSort, offset, limit int) ([]*model.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !repository.IsSortField(s.Field) {
		return nil, repository.ErrInvalidSort
	}

	items := m.match(filter)
	less := func(a, b *model.Expense) int {
		switch s.Field {
		case "amount":
			return cmpFloat(a.Amount, b.Amount)
		case "category":
			return strings.Compare(a.Category, b.Category)
		case "description":
			return strings.Compare(a.Description, b.Description)
		case "createdAt":
			return a.CreatedAt.Compare(b.CreatedAt)
		case "updatedAt":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			return a.Date.Compare(b.Date)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		c := less(items[i], items[j])
		if c == 0 {
			c = strings.Compare(items[i].ID, items[j].ID)
		}
		if s.Desc {
			return c > 0
		}
		return c < 0
	})

	if offset >= len(items) {
		return []*model.Expense{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *memStore) CountExpenses(_ context.Context, filter repository.ExpenseFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.match(filter))), nil
}

func (m *memStore) UpdateExpense(_ context.Context, e *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[e.ID]
	if !ok || existing.UserID != e.UserID {
		return repository.ErrExpenseNotFound
	}
	m.expenses[e.ID] = copyExpense(e)
	return nil
}

func (m *memStore) DeleteExpense(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.expenses[id]
	if !ok || existing.UserID != userID {
		return repository.ErrExpenseNotFound
	}
	delete(m.expenses, id)
	return nil
}

func (m *memStore) DeleteExpenses(_ context.Context, userID string, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if e, ok := m.expenses[id]; ok && e.UserID == userID {
			delete(m.expenses, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) AggregateByCategory(_ context.Context, userID string, from, to *time.Time) ([]model.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCategory := map[string]*model.CategoryTotal{}
	for _, e := range m.match(repository.ExpenseFilter{UserID: userID, From: from, To: to}) {
		t, ok := byCategory[e.Category]
		if !ok {
			t = &model.CategoryTotal{Category: e.Category}
			byCategory[e.Category] = t
		}
		t.TotalAmount += e.Amount
		t.Count++
	}
	out := make([]model.CategoryTotal, 0, len(byCategory))
	for _, t := range byCategory {
		out = append(out, *t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out, nil
}

// stubTokens issues predictable tokens.
type stubTokens struct {
	err error
}

func (s stubTokens) Issue(userID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-for-" + userID, nil
}

// recordingDispatcher captures dispatched welcomes.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Welcome
}

func (d *recordingDispatcher) DispatchAsync(w notify.Welcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, w)
}

// fixedClock returns a now func pinned to t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered            uint64
	LoginsSucceeded            uint64
	LoginsFailed               uint64
	LoginsRateLimited          uint64
	CategoriesCreated          uint64
	CategoriesDeleted          uint64
	ExpensesCreated            uint64
	ExpensesUpdated            uint64
	ExpensesDeleted            uint64
	ExpenseQueryCount          uint64
	ExpenseQueryTotalNs        int64
	WelcomeNotificationsSent   uint64
	WelcomeNotificationsFailed uint64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint and tests.
type InMemoryRecorder struct {
	usersRegistered            atomic.Uint64
	loginsSucceeded            atomic.Uint64
	loginsFailed               atomic.Uint64
	loginsRateLimited          atomic.Uint64
	categoriesCreated          atomic.Uint64
	categoriesDeleted          atomic.Uint64
	expensesCreated            atomic.Uint64
	expensesUpdated            atomic.Uint64
	expensesDeleted            atomic.Uint64
	expenseQueryCount          atomic.Uint64
	expenseQueryTotalNs        atomic.Int64
	welcomeNotificationsSent   atomic.Uint64
	welcomeNotificationsFailed atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:            m.usersRegistered.Load(),
		LoginsSucceeded:            m.loginsSucceeded.Load(),
		LoginsFailed:               m.loginsFailed.Load(),
		LoginsRateLimited:          m.loginsRateLimited.Load(),
		CategoriesCreated:          m.categoriesCreated.Load(),
		CategoriesDeleted:          m.categoriesDeleted.Load(),
		ExpensesCreated:            m.expensesCreated.Load(),
		ExpensesUpdated:            m.expensesUpdated.Load(),
		ExpensesDeleted:            m.expensesDeleted.Load(),
		ExpenseQueryCount:          m.expenseQueryCount.Load(),
		ExpenseQueryTotalNs:        m.expenseQueryTotalNs.Load(),
		WelcomeNotificationsSent:   m.welcomeNotificationsSent.Load(),
		WelcomeNotificationsFailed: m.welcomeNotificationsFailed.Load(),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() { m.usersRegistered.Add(1) }

// IncLoginSucceeded increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSucceeded() { m.loginsSucceeded.Add(1) }

// IncLoginFailed increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailed() { m.loginsFailed.Add(1) }

// IncLoginRateLimited increments the counter of login attempts rejected by the limiter.
func (m *InMemoryRecorder) IncLoginRateLimited() { m.loginsRateLimited.Add(1) }

// IncCategoryCreated increments category created counter.
func (m *InMemoryRecorder) IncCategoryCreated() { m.categoriesCreated.Add(1) }

// IncCategoryDeleted increments category deleted counter.
func (m *InMemoryRecorder) IncCategoryDeleted() { m.categoriesDeleted.Add(1) }

// IncExpenseCreated increments expense created counter.
func (m *InMemoryRecorder) IncExpenseCreated() { m.expensesCreated.Add(1) }

// IncExpenseUpdated increments expense updated counter.
func (m *InMemoryRecorder) IncExpenseUpdated() { m.expensesUpdated.Add(1) }

// IncExpensesDeleted adds n to the expense deleted counter.
func (m *InMemoryRecorder) IncExpensesDeleted(n int64) {
	if n > 0 {
		m.expensesDeleted.Add(uint64(n))
	}
}

// ObserveExpenseQueryDuration records the duration of a listing query.
func (m *InMemoryRecorder) ObserveExpenseQueryDuration(duration time.Duration) {
	m.expenseQueryCount.Add(1)
	m.expenseQueryTotalNs.Add(duration.Nanoseconds())
}

// IncWelcomeNotification counts a welcome notification outcome.
func (m *InMemoryRecorder) IncWelcomeNotification(status string) {
	switch status {
	case NotificationSent:
		m.welcomeNotificationsSent.Add(1)
	case NotificationFailed:
		m.welcomeNotificationsFailed.Add(1)
	}
}

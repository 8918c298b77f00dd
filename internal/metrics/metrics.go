// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Notification statuses.
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncUserRegistered()
	IncLoginSucceeded()
	IncLoginFailed()
	IncLoginRateLimited()

	// Category metrics
	IncCategoryCreated()
	IncCategoryDeleted()

	// Expense metrics
	IncExpenseCreated()
	IncExpenseUpdated()
	IncExpensesDeleted(n int64)
	ObserveExpenseQueryDuration(duration time.Duration)

	// Welcome notifications
	IncWelcomeNotification(status string) // status: "sent" or "failed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered() {}
func (n *NoopRecorder) IncLoginSucceeded() {}
func (n *NoopRecorder) IncLoginFailed() {}
func (n *NoopRecorder) IncLoginRateLimited() {}
func (n *NoopRecorder) IncCategoryCreated() {}
func (n *NoopRecorder) IncCategoryDeleted() {}
func (n *NoopRecorder) IncExpenseCreated() {}
func (n *NoopRecorder) IncExpenseUpdated() {}
func (n *NoopRecorder) IncExpensesDeleted(count int64) {}
func (n *NoopRecorder) ObserveExpenseQueryDuration(duration time.Duration) {}
func (n *NoopRecorder) IncWelcomeNotification(status string) {}

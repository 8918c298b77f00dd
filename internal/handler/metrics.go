package handler

import (
	"fmt"
	"net/http"

	"github.com/exptrack/exptrack/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "expense_tracker_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "expense_tracker_logins_total{result=\"success\"} %d\n", snap.LoginsSucceeded)
	writeMetric(w, "expense_tracker_logins_total{result=\"failed\"} %d\n", snap.LoginsFailed)
	writeMetric(w, "expense_tracker_logins_total{result=\"rate_limited\"} %d\n", snap.LoginsRateLimited)

	writeMetric(w, "expense_tracker_categories_created_total %d\n", snap.CategoriesCreated)
	writeMetric(w, "expense_tracker_categories_deleted_total %d\n", snap.CategoriesDeleted)

	writeMetric(w, "expense_tracker_expenses_created_total %d\n", snap.ExpensesCreated)
	writeMetric(w, "expense_tracker_expenses_updated_total %d\n", snap.ExpensesUpdated)
	writeMetric(w, "expense_tracker_expenses_deleted_total %d\n", snap.ExpensesDeleted)
	writeMetric(w, "expense_tracker_expense_query_duration_seconds_count %d\n", snap.ExpenseQueryCount)
	writeMetric(w, "expense_tracker_expense_query_duration_seconds_sum %.6f\n", float64(snap.ExpenseQueryTotalNs)/1e9)

	writeMetric(w, "expense_tracker_welcome_notifications_total{status=\"sent\"} %d\n", snap.WelcomeNotificationsSent)
	writeMetric(w, "expense_tracker_welcome_notifications_total{status=\"failed\"} %d\n", snap.WelcomeNotificationsFailed)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/exptrack/exptrack/internal/metrics"
)

// DefaultDispatchTimeout bounds a single detached notification.
const DefaultDispatchTimeout = 30 * time.Second

// Dispatcher runs notifications detached from the request that triggered them.
type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  metrics.Recorder
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil notifier disables delivery.
func NewDispatcher(notifier Notifier, logger *slog.Logger, recorder metrics.Recorder, timeout time.Duration) *Dispatcher {
	if notifier == nil {
		notifier = Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		logger:   logger.With("component", "notify"),
		metrics:  recorder,
		timeout:  timeout,
	}
}

// DispatchAsync sends w without blocking the caller.
// Errors are logged but not returned (fire-and-forget).
func (d *Dispatcher) DispatchAsync(w Welcome) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.SendWelcome(ctx, w); err != nil {
			d.logger.Warn("failed to send welcome notification",
				"user_id", w.UserID,
				"error", err,
			)
			d.metrics.IncWelcomeNotification(metrics.NotificationFailed)
			return
		}

		d.logger.Debug("welcome notification sent", "user_id", w.UserID)
		d.metrics.IncWelcomeNotification(metrics.NotificationSent)
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package notify

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/exptrack/exptrack/internal/metrics"
)

// ErrDeliveriesClosed is returned by Run when the broker closes the consumer.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Worker drains queued welcome messages into a Notifier, usually an SMTPMailer.
// Failed messages are dropped, never requeued.
type Worker struct {
	notifier Notifier
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewWorker creates a Worker.
func NewWorker(notifier Notifier, logger *slog.Logger, recorder metrics.Recorder) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		notifier: notifier,
		logger:   logger.With("component", "mailer"),
		metrics:  recorder,
	}
}

// Run processes deliveries until ctx is cancelled or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.logger.Info("mailer worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("mailer worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrDeliveriesClosed
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle sends one delivery and acknowledges it.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	welcome, err := decodeWelcome(d.Body)
	if err != nil {
		w.logger.Error("dropping malformed welcome message", "error", err)
		w.nack(d)
		return
	}

	if err := w.notifier.SendWelcome(ctx, welcome); err != nil {
		w.logger.Error("failed to send welcome mail",
			"user_id", welcome.UserID,
			"error", err,
		)
		w.metrics.IncWelcomeNotification(metrics.NotificationFailed)
		w.nack(d)
		return
	}

	if err := d.Ack(false); err != nil {
		w.logger.Warn("failed to ack welcome message", "user_id", welcome.UserID, "error", err)
	}
	w.metrics.IncWelcomeNotification(metrics.NotificationSent)
	w.logger.Info("welcome mail sent", "user_id", welcome.UserID)
}

func (w *Worker) nack(d amqp.Delivery) {
	if err := d.Nack(false, false); err != nil {
		w.logger.Warn("failed to nack welcome message", "error", err)
	}
}

// Package main runs the mailer worker: it drains welcome messages from
// RabbitMQ and delivers them over SMTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/exptrack/exptrack/internal/config"
	"github.com/exptrack/exptrack/internal/logging"
	"github.com/exptrack/exptrack/internal/metrics"
	"github.com/exptrack/exptrack/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadMailer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("mailer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mailer stopped")
}

func run(ctx context.Context, cfg *config.MailerConfig, logger *slog.Logger) error {
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.EmailHost,
		Port:     cfg.EmailPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
		From:     cfg.EmailFrom,
	})
	if err != nil {
		return fmt.Errorf("smtp mailer: %w", err)
	}

	queue, err := notify.NewQueue(notify.QueueConfig{
		URL:      cfg.AMQPURL,
		Exchange: cfg.AMQPExchange,
		Queue:    cfg.AMQPQueue,
	})
	if err != nil {
		return fmt.Errorf("amqp: %s", logging.SanitizeError(err, cfg.AMQPURL))
	}
	defer queue.Close()

	deliveries, err := queue.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	logger.Info("mailer consuming",
		"amqp_url", logging.RedactURL(cfg.AMQPURL),
		"queue", cfg.AMQPQueue,
		"smtp_host", cfg.EmailHost,
	)

	worker := notify.NewWorker(mailer, logger, metrics.NewNoop())
	err = worker.Run(ctx, deliveries)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

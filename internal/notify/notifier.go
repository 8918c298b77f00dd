// Package notify delivers the welcome notification sent after registration.
//
// Delivery is best effort: the HTTP request never waits for it and failures
// are only logged. Mail can go out directly over SMTP or through a RabbitMQ
// queue drained by the mailer worker.
package notify

import (
	"context"
	"fmt"
)

// Welcome identifies the recipient of a welcome notification.
type Welcome struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Notifier sends welcome notifications.
type Notifier interface {
	SendWelcome(ctx context.Context, w Welcome) error
}

// Noop discards notifications. Used when no mail backend is configured.
type Noop struct{}

// SendWelcome does nothing.
func (Noop) SendWelcome(context.Context, Welcome) error { return nil }

const welcomeSubject = "Welcome to Expense Tracker"

// welcomeBody renders the plain-text welcome mail.
func welcomeBody(name string) string {
	return fmt.Sprintf("Hi %s, \n\nWelcome to Expense Tracker! Start managing your expenses today.\n\nBest,\nThe Expense Tracker Team", name)
}

package delivery

import (
	"context"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

type leadNotifier interface {
	NotifyLeadSubmitted(ctx context.Context, sub *leads.Submission) error
}

// Email sends the customer acknowledgement and the sales notification.
type Email struct {
	notifier leadNotifier
}

func NewEmail(notifier leadNotifier) *Email {
	return &Email{notifier: notifier}
}

func (e *Email) Name() string { return NameEmail }

func (e *Email) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	return "", e.notifier.NotifyLeadSubmitted(ctx, sub)
}

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Service sends the emails that accompany a new lead.
type Service struct {
	email  EmailSender
	cfg    LeadEmailConfig
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, cfg LeadEmailConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:  email,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// NotifyLeadSubmitted sends the customer acknowledgement (only when the
// submitter left an email address) and the sales notification. Both are
// attempted; failures are joined.
func (s *Service) NotifyLeadSubmitted(ctx context.Context, sub *leads.Submission) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping lead emails")
		return nil
	}

	var errs []error

	if sub.Email != "" {
		msg, err := CustomerAckEmail(s.cfg, sub)
		if err == nil {
			err = s.email.Send(ctx, msg)
		}
		if err != nil {
			s.logger.Error("notify: customer acknowledgement failed", "error", err, "lead_id", sub.ID)
			errs = append(errs, fmt.Errorf("customer ack: %w", err))
		}
	} else {
		s.logger.Debug("notify: no submitter email, skipping acknowledgement", "lead_id", sub.ID)
	}

	msg, err := SalesNotificationEmail(s.cfg, sub)
	if err == nil {
		err = s.email.Send(ctx, msg)
	}
	if err != nil {
		s.logger.Error("notify: sales notification failed", "error", err, "lead_id", sub.ID)
		errs = append(errs, fmt.Errorf("sales notification: %w", err))
	}

	return errors.Join(errs...)
}

package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

type mailgunAPI interface {
	NewMessage(from, subject, text string, to ...string) *mailgun.Message
	Send(ctx context.Context, m *mailgun.Message) (string, string, error)
}

// MailgunSender sends emails via the Mailgun API.
type MailgunSender struct {
	client    mailgunAPI
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// MailgunConfig holds configuration for Mailgun.
type MailgunConfig struct {
	Domain    string
	APIKey    string
	FromEmail string
	FromName  string
}

// NewMailgunSender returns nil unless both domain and key are set.
func NewMailgunSender(cfg MailgunConfig, logger *logging.Logger) *MailgunSender {
	if cfg.Domain == "" || cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &MailgunSender{
		client:    mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via Mailgun.
func (s *MailgunSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: mailgun client not configured")
	}

	from := Address(s.fromName, s.fromEmail)
	if msg.From != "" {
		from = Address(msg.FromName, msg.From)
	}
	message := s.client.NewMessage(from, msg.Subject, msg.Body, Address(msg.ToName, msg.To))
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if msg.ReplyTo != "" {
		message.SetReplyTo(msg.ReplyTo)
	}
	if msg.Tag != "" {
		if err := message.AddTag(msg.Tag); err != nil {
			return fmt.Errorf("notify: mailgun tag: %w", err)
		}
	}

	_, id, err := s.client.Send(ctx, message)
	if err != nil {
		s.logger.Error("mailgun send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: mailgun send failed: %w", err)
	}

	s.logger.Info("email sent via mailgun", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return nil
}

var _ EmailSender = (*MailgunSender)(nil)

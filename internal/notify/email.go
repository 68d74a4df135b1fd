package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sendgrid/rest"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (Resend, SendGrid, SES, Mailgun) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From     string // Optional sender address; providers fall back to their configured address
	FromName string
	To       string
	ToName   string
	Subject  string
	Body     string // Plain text body
	HTML     string // Optional HTML body
	ReplyTo  string
	Tag      string // provider tag or category, e.g. "lead-ack"
}

// Address formats a display name and address as "Name <addr>".
func Address(name, addr string) string {
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", name, addr)
}

type sendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    sendGridAPI
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	fromEmail, fromName := s.fromEmail, s.fromName
	if msg.From != "" {
		fromEmail, fromName = msg.From, msg.FromName
	}
	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	plain := msg.Body
	if plain == "" {
		plain = msg.Subject
	}
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, plain, html)
	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}
	if msg.Tag != "" {
		message.AddCategories(msg.Tag)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// StubEmailSender is a no-op sender for local development and tests. It
// remembers what it was asked to send.
type StubEmailSender struct {
	logger *logging.Logger

	mu   sync.Mutex
	sent []EmailMessage
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns the messages passed to Send so far.
func (s *StubEmailSender) Sent() []EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EmailMessage(nil), s.sent...)
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)

package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers lead emails through Amazon SES v2.
type SESSender struct {
	client           sesAPI
	from             string
	configurationSet string
	logger           *logging.Logger
}

// SESConfig holds configuration for SES. ConfigurationSet is optional and
// routes sends through an SES configuration set for event publishing.
type SESConfig struct {
	FromEmail        string
	FromName         string
	ConfigurationSet string
}

// NewSESSender returns nil when client is nil.
func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	return &SESSender{
		client:           client,
		from:             Address(cfg.FromName, cfg.FromEmail),
		configurationSet: cfg.ConfigurationSet,
		logger:           logger,
	}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		s.logger.Error("ses send failed", "error", err, "to", msg.To, "tag", msg.Tag)
		return fmt.Errorf("notify: ses send failed: %w", err)
	}
	s.logger.Info("email sent via ses", "to", msg.To, "tag", msg.Tag, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	from := s.from
	if msg.From != "" {
		from = Address(msg.FromName, msg.From)
	}

	body := &types.Body{}
	if msg.Body != "" {
		body.Text = utf8Content(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{Address(msg.ToName, msg.To)}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if s.configurationSet != "" {
		in.ConfigurationSetName = aws.String(s.configurationSet)
	}
	if msg.Tag != "" {
		in.EmailTags = []types.MessageTag{{Name: aws.String("category"), Value: aws.String(msg.Tag)}}
	}
	return in
}

func utf8Content(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)

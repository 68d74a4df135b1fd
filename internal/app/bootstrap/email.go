package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/notify"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Email provider names accepted in EMAIL_PROVIDER.
const (
	EmailProviderAuto     = "auto"
	EmailProviderResend   = "resend"
	EmailProviderSendGrid = "sendgrid"
	EmailProviderMailgun  = "mailgun"
	EmailProviderSES      = "ses"
	EmailProviderStub     = "stub"
	EmailProviderNone     = "none"
)

// BuildEmailSender selects the transactional email provider. "auto" takes the
// first configured of resend, sendgrid and mailgun, and falls back to the
// stub sender. SES is only used when asked for explicitly because it relies
// on ambient AWS credentials rather than an API key. A nil sender disables
// lead emails.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, aws AWSLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	provider := cfg.EmailProvider
	if provider == "" {
		provider = EmailProviderAuto
	}

	resend := func() notify.EmailSender {
		if s := notify.NewResendSender(notify.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			BaseURL:   cfg.ResendBaseURL,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
		return nil
	}
	sendgrid := func() notify.EmailSender {
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
		return nil
	}
	mailgun := func() notify.EmailSender {
		if s := notify.NewMailgunSender(notify.MailgunConfig{
			Domain:    cfg.MailgunDomain,
			APIKey:    cfg.MailgunAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger); s != nil {
			return s
		}
		return nil
	}

	var sender notify.EmailSender
	switch provider {
	case EmailProviderAuto:
		for _, build := range []func() notify.EmailSender{resend, sendgrid, mailgun} {
			if sender = build(); sender != nil {
				break
			}
		}
		if sender == nil {
			logger.Warn("no email provider configured, using stub sender")
			return notify.NewStubEmailSender(logger), nil
		}
	case EmailProviderResend:
		sender = resend()
	case EmailProviderSendGrid:
		sender = sendgrid()
	case EmailProviderMailgun:
		sender = mailgun()
	case EmailProviderSES:
		if aws == nil {
			return nil, fmt.Errorf("bootstrap: ses email provider needs aws config")
		}
		awsCfg, err := aws(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config for ses: %w", err)
		}
		sender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail:        cfg.EmailFromAddress,
			FromName:         cfg.EmailFromName,
			ConfigurationSet: cfg.SESConfigSet,
		}, logger)
	case EmailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	case EmailProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", provider)
	}
	if sender == nil {
		return nil, fmt.Errorf("bootstrap: email provider %q is missing credentials", provider)
	}
	logger.Info("email provider configured", "provider", fmt.Sprintf("%T", sender))
	return sender, nil
}

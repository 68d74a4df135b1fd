package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"google.golang.org/api/option"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/delivery"
	"github.com/wolfman30/visitplus-leads/internal/events"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Adapters holds every downstream adapter that is configured. A nil field
// means the adapter is disabled.
type Adapters struct {
	Sheets      delivery.Adapter
	CRM         delivery.Adapter
	Email       delivery.Adapter
	Database    delivery.Adapter
	Attachments delivery.Adapter
	Queue       delivery.Adapter
}

// BuildPlan lays out the delivery steps for a variant.
//
//	inquiry:  sheets, crm, email, queue (all optional)
//	photo:    crm (required), attachments, email, queue
//	database: database, queue (all optional)
//
// mandatory names one adapter to mark required instead of the variant
// default; "sheets" matches either spreadsheet adapter.
func BuildPlan(variant leads.Variant, a Adapters, mandatory string) (delivery.Plan, error) {
	var plan delivery.Plan
	add := func(ad delivery.Adapter, required bool) {
		if ad != nil {
			plan = append(plan, delivery.Step{Adapter: ad, Required: required})
		}
	}

	switch variant {
	case leads.VariantInquiry:
		add(a.Sheets, false)
		add(a.CRM, false)
		add(a.Email, false)
		add(a.Queue, false)
	case leads.VariantPhoto:
		if a.CRM == nil {
			return nil, fmt.Errorf("bootstrap: photo variant requires the crm adapter")
		}
		add(a.CRM, true)
		add(a.Attachments, false)
		add(a.Email, false)
		add(a.Queue, false)
	case leads.VariantDatabase:
		if a.Database == nil {
			return nil, fmt.Errorf("bootstrap: database variant requires a lead store")
		}
		add(a.Database, false)
		add(a.Queue, false)
	default:
		return nil, fmt.Errorf("%w: %q", leads.ErrUnknownVariant, variant)
	}

	mandatory = strings.ToLower(strings.TrimSpace(mandatory))
	if mandatory == "" {
		return plan, nil
	}
	matched := false
	for i := range plan {
		name := plan[i].Adapter.Name()
		hit := name == mandatory || (mandatory == "sheets" && (name == delivery.NameSheetsWebhook || name == delivery.NameSheetsAPI))
		plan[i].Required = hit
		matched = matched || hit
	}
	if !matched {
		return nil, fmt.Errorf("bootstrap: mandatory adapter %q is not enabled for %s (plan: %s)",
			mandatory, variant, strings.Join(plan.Names(), ","))
	}
	return plan, nil
}

// AdapterDeps are the already-built collaborators adapters are made from.
type AdapterDeps struct {
	Repository leads.Repository
	Notifier   interface {
		NotifyLeadSubmitted(ctx context.Context, sub *leads.Submission) error
	}
	AWS    AWSLoader
	Logger *logging.Logger
}

// BuildAdapters constructs every adapter whose configuration is present.
func BuildAdapters(ctx context.Context, cfg *appconfig.Config, deps AdapterDeps) (Adapters, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	var a Adapters

	switch {
	case cfg.SheetsWebhookURL != "":
		a.Sheets = delivery.NewSheetsWebhook(cfg.SheetsWebhookURL, nil)
	case cfg.SheetsSpreadsheetID != "":
		var opts []option.ClientOption
		if cfg.SheetsCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.SheetsCredentialsFile))
		}
		appender, err := delivery.NewSheetsAppender(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsRange, opts...)
		if err != nil {
			return Adapters{}, err
		}
		a.Sheets = appender
	}

	if cfg.HubSpotEnabled() {
		a.CRM = delivery.NewHubSpotCRM(delivery.HubSpotConfig{
			APIKey:     cfg.HubSpotAPIKey,
			BaseURL:    cfg.HubSpotBaseURL,
			LeadSource: cfg.HubSpotLeadSource,
		})
	}

	if deps.Notifier != nil {
		a.Email = delivery.NewEmail(deps.Notifier)
	}
	if deps.Repository != nil {
		a.Database = delivery.NewDatabase(deps.Repository)
	}

	if cfg.AttachmentsBucket != "" || cfg.LeadEventsQueueURL != "" {
		if deps.AWS == nil {
			return Adapters{}, fmt.Errorf("bootstrap: attachments and queue adapters need aws config")
		}
		awsCfg, err := deps.AWS(ctx)
		if err != nil {
			return Adapters{}, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		if cfg.AttachmentsBucket != "" {
			client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
				o.UsePathStyle = cfg.AWSEndpointOverride != ""
			})
			a.Attachments = delivery.NewAttachments(client, cfg.AttachmentsBucket)
		}
		if cfg.LeadEventsQueueURL != "" {
			a.Queue = delivery.NewQueue(events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.LeadEventsQueueURL))
		}
	}

	logger.Info("delivery adapters configured",
		"sheets", a.Sheets != nil,
		"crm", a.CRM != nil,
		"email", a.Email != nil,
		"database", a.Database != nil,
		"attachments", a.Attachments != nil,
		"queue", a.Queue != nil,
	)
	return a, nil
}

package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/delivery"
	httpmiddleware "github.com/wolfman30/visitplus-leads/internal/http/middleware"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/notify"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

type namedAdapter string

func (n namedAdapter) Name() string { return string(n) }

func (n namedAdapter) Deliver(context.Context, *leads.Submission) (string, error) { return "", nil }

func allAdapters() Adapters {
	return Adapters{
		Sheets:      namedAdapter(delivery.NameSheetsWebhook),
		CRM:         namedAdapter(delivery.NameCRM),
		Email:       namedAdapter(delivery.NameEmail),
		Database:    namedAdapter(delivery.NameDatabase),
		Attachments: namedAdapter(delivery.NameAttachments),
		Queue:       namedAdapter(delivery.NameQueue),
	}
}

func requiredNames(p delivery.Plan) []string {
	var out []string
	for _, s := range p {
		if s.Required {
			out = append(out, s.Adapter.Name())
		}
	}
	return out
}

func TestBuildPlan(t *testing.T) {
	tests := []struct {
		name      string
		variant   leads.Variant
		adapters  Adapters
		mandatory string
		wantOrder []string
		wantReq   []string
		wantErr   bool
	}{
		{
			name:      "inquiry all optional",
			variant:   leads.VariantInquiry,
			adapters:  allAdapters(),
			wantOrder: []string{"sheets_webhook", "crm", "email", "queue"},
		},
		{
			name:      "photo crm required",
			variant:   leads.VariantPhoto,
			adapters:  allAdapters(),
			wantOrder: []string{"crm", "attachments", "email", "queue"},
			wantReq:   []string{"crm"},
		},
		{
			name:      "database optional by default",
			variant:   leads.VariantDatabase,
			adapters:  allAdapters(),
			wantOrder: []string{"database", "queue"},
		},
		{
			name:      "database made mandatory",
			variant:   leads.VariantDatabase,
			adapters:  allAdapters(),
			mandatory: "database",
			wantOrder: []string{"database", "queue"},
			wantReq:   []string{"database"},
		},
		{
			name:      "sheets alias",
			variant:   leads.VariantInquiry,
			adapters:  allAdapters(),
			mandatory: " Sheets ",
			wantOrder: []string{"sheets_webhook", "crm", "email", "queue"},
			wantReq:   []string{"sheets_webhook"},
		},
		{
			name:      "disabled adapters are skipped",
			variant:   leads.VariantInquiry,
			adapters:  Adapters{Email: namedAdapter(delivery.NameEmail)},
			wantOrder: []string{"email"},
		},
		{
			name:     "photo without crm",
			variant:  leads.VariantPhoto,
			adapters: Adapters{Email: namedAdapter(delivery.NameEmail)},
			wantErr:  true,
		},
		{
			name:     "database without store",
			variant:  leads.VariantDatabase,
			adapters: Adapters{},
			wantErr:  true,
		},
		{
			name:      "unknown mandatory",
			variant:   leads.VariantDatabase,
			adapters:  allAdapters(),
			mandatory: "crm",
			wantErr:   true,
		},
		{
			name:     "unknown variant",
			variant:  leads.Variant("kiosk"),
			adapters: allAdapters(),
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan(tt.variant, tt.adapters, tt.mandatory)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrder, plan.Names())
			assert.Equal(t, tt.wantReq, requiredNames(plan))
		})
	}
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.Default()
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     appconfig.Config
		want    any
		wantNil bool
		wantErr bool
	}{
		{name: "auto prefers resend", cfg: appconfig.Config{EmailProvider: "auto", ResendAPIKey: "re_x", SendGridAPIKey: "SG.x"}, want: &notify.ResendSender{}},
		{name: "auto falls to sendgrid", cfg: appconfig.Config{EmailProvider: "auto", SendGridAPIKey: "SG.x"}, want: &notify.SendGridSender{}},
		{name: "auto falls to mailgun", cfg: appconfig.Config{EmailProvider: "auto", MailgunDomain: "mg.visitplus.kr", MailgunAPIKey: "key"}, want: &notify.MailgunSender{}},
		{name: "config set only applies to ses", cfg: appconfig.Config{EmailProvider: "mailgun", MailgunDomain: "mg.visitplus.kr", MailgunAPIKey: "key", SESConfigSet: "leads"}, want: &notify.MailgunSender{}},
		{name: "auto falls to stub", cfg: appconfig.Config{}, want: &notify.StubEmailSender{}},
		{name: "explicit sendgrid", cfg: appconfig.Config{EmailProvider: "sendgrid", ResendAPIKey: "re_x", SendGridAPIKey: "SG.x"}, want: &notify.SendGridSender{}},
		{name: "explicit without key", cfg: appconfig.Config{EmailProvider: "resend"}, wantErr: true},
		{name: "none", cfg: appconfig.Config{EmailProvider: "none"}, wantNil: true},
		{name: "ses without aws", cfg: appconfig.Config{EmailProvider: "ses"}, wantErr: true},
		{name: "unknown", cfg: appconfig.Config{EmailProvider: "pigeon"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			sender, err := BuildEmailSender(ctx, &cfg, nil, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, sender)
				return
			}
			assert.IsType(t, tt.want, sender)
		})
	}
}

func TestBuildEmailSenderSES(t *testing.T) {
	loader := func(context.Context) (aws.Config, error) {
		return aws.Config{Region: "ap-northeast-2"}, nil
	}
	cfg := &appconfig.Config{EmailProvider: "ses", EmailFromAddress: "noreply@visitplus.kr", SESConfigSet: "leads"}
	sender, err := BuildEmailSender(context.Background(), cfg, loader, nil)
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)
}

func TestOnceAWSLoadsOnce(t *testing.T) {
	calls := 0
	load := OnceAWS(func(context.Context) (aws.Config, error) {
		calls++
		return aws.Config{}, errors.New("no credentials")
	})
	for i := 0; i < 3; i++ {
		_, err := load(context.Background())
		assert.Error(t, err)
	}
	assert.Equal(t, 1, calls)
	assert.Nil(t, OnceAWS(nil))
}

func TestBuildRepository(t *testing.T) {
	ctx := context.Background()

	repo, closeFn, err := BuildRepository(ctx, &appconfig.Config{DatabaseDriver: "memory"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &leads.InMemoryRepository{}, repo)
	closeFn()

	repo, _, err = BuildRepository(ctx, &appconfig.Config{DatabaseDriver: "postgres"}, nil, nil)
	require.NoError(t, err)
	assert.IsType(t, &leads.InMemoryRepository{}, repo, "postgres without a url falls back to memory")

	_, _, err = BuildRepository(ctx, &appconfig.Config{DatabaseDriver: "dynamodb", DynamoLeadsTable: "lead_submissions"}, nil, nil)
	assert.Error(t, err)

	_, _, err = BuildRepository(ctx, &appconfig.Config{DatabaseDriver: "sqlite"}, nil, nil)
	assert.Error(t, err)
}

func TestBuildRedisClientAndLimiter(t *testing.T) {
	ctx := context.Background()
	logger := logging.Default()

	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{}, logger, true))

	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), RateLimitPerMinute: 10}
	client := BuildRedisClient(ctx, cfg, logger, true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	assert.IsType(t, &httpmiddleware.RedisWindow{}, BuildRateLimiter(cfg, client, logger))
	assert.IsType(t, &httpmiddleware.TokenBucket{}, BuildRateLimiter(cfg, nil, logger))
	assert.Nil(t, BuildRateLimiter(&appconfig.Config{}, nil, logger))
}

func TestBuildRedisClientURL(t *testing.T) {
	ctx := context.Background()
	logger := logging.Default()
	mr := miniredis.RunT(t)

	client := BuildRedisClient(ctx, &appconfig.Config{RedisAddr: "redis://" + mr.Addr() + "/0"}, logger, true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.Equal(t, mr.Addr(), client.Options().Addr)

	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{RedisAddr: "redis://" + mr.Addr() + "/not-a-db"}, logger, true))
}

func TestBuildProfileAppliesAttachmentLimits(t *testing.T) {
	p, err := BuildProfile(&appconfig.Config{LeadVariant: "photo", MaxAttachments: 3, MaxAttachmentBytes: 1 << 20})
	require.NoError(t, err)
	assert.Equal(t, 3, p.MaxAttachments)
	assert.Equal(t, int64(1<<20), p.MaxAttachmentBytes)

	p, err = BuildProfile(&appconfig.Config{LeadVariant: "inquiry", MaxAttachments: 3})
	require.NoError(t, err)
	assert.Zero(t, p.MaxAttachments)

	_, err = BuildProfile(&appconfig.Config{LeadVariant: "kiosk"})
	assert.ErrorIs(t, err, leads.ErrUnknownVariant)
}

func TestBuildServesDatabaseVariant(t *testing.T) {
	cfg := &appconfig.Config{
		LeadVariant:    "database",
		DatabaseDriver: "memory",
		EmailProvider:  "none",
		AdminJWTSecret: "secret",
	}
	app, err := Build(context.Background(), cfg, nil, logging.Default())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.Equal(t, []string{"database"}, app.Plan.Names())

	req := httptest.NewRequest(http.MethodPost, "/api/lead-db", strings.NewReader(`{"name":"홍길동","phone":"010-1234-5678"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"leadId"`)

	rec = httptest.NewRecorder()
	app.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "visitplus_leads_submissions_total")
}

func TestBuildPhotoVariantRequiresCRM(t *testing.T) {
	cfg := &appconfig.Config{LeadVariant: "photo", DatabaseDriver: "memory", EmailProvider: "stub"}
	_, err := Build(context.Background(), cfg, nil, logging.Default())
	assert.Error(t, err)
}

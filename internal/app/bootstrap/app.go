package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/visitplus-leads/internal/api/router"
	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/delivery"
	httpmiddleware "github.com/wolfman30/visitplus-leads/internal/http/middleware"
	"github.com/wolfman30/visitplus-leads/internal/intake"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/notify"
	"github.com/wolfman30/visitplus-leads/internal/observability/metrics"
	"github.com/wolfman30/visitplus-leads/internal/web"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// App is the fully wired lead service shared by the HTTP server and the
// Lambda entry point.
type App struct {
	Profile leads.Profile
	Plan    delivery.Plan
	Intake  *intake.Handler
	Handler http.Handler
	Metrics *metrics.LeadMetrics

	closers []func()
}

// Close releases pools and clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Build wires configuration into a ready-to-serve App.
func Build(ctx context.Context, cfg *appconfig.Config, awsLoader AWSLoader, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	awsLoader = OnceAWS(awsLoader)
	app := &App{}

	profile, err := BuildProfile(cfg)
	if err != nil {
		return nil, err
	}
	app.Profile = profile

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewLeadMetrics(reg)

	repo, closeRepo, err := BuildRepository(ctx, cfg, awsLoader, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepo)

	deps := AdapterDeps{AWS: awsLoader, Logger: logger}
	if profile.Variant == leads.VariantDatabase {
		deps.Repository = repo
	}
	sender, err := BuildEmailSender(ctx, cfg, awsLoader, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	if sender != nil {
		deps.Notifier = notify.NewService(sender, notify.LeadEmailConfig{
			FromEmail:   cfg.EmailFromAddress,
			FromName:    cfg.EmailFromName,
			SystemEmail: cfg.SystemFromAddress,
			SalesEmail:  cfg.SalesEmail,
		}, logger)
	}

	adapters, err := BuildAdapters(ctx, cfg, deps)
	if err != nil {
		app.Close()
		return nil, err
	}
	plan, err := BuildPlan(profile.Variant, adapters, cfg.MandatoryAdapter)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Plan = plan

	app.Intake = intake.NewHandler(intake.Config{
		Profile:    profile,
		Plan:       plan,
		Dispatcher: delivery.NewDispatcher(logger, app.Metrics, cfg.DeliveryTimeout),
		Logger:     logger,
		Metrics:    app.Metrics,
	})

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}
	limiter := BuildRateLimiter(cfg, redisClient, logger)

	app.Handler = router.New(&router.Config{
		Logger:      logger,
		Intake:      app.Intake,
		IntakePath:  cfg.LeadPath,
		RateLimiter: limiter,
		Thanks: web.Thanks(web.ThanksConfig{
			GAMeasurementID:     cfg.GAMeasurementID,
			AdsConversionSendTo: cfg.AdsConversionSendTo,
			SupportPhone:        cfg.SupportPhone,
			KakaoURL:            cfg.KakaoChannelURL,
		}),
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		LeadsHandler:        leads.NewHandler(repo, logger),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		AdminAllowedOrigins: httpmiddleware.ParseOrigins(cfg.AdminAllowedOrigins),
	})

	path := cfg.LeadPath
	if path == "" {
		path = app.Intake.Path()
	}
	logger.Info("lead service ready",
		"variant", profile.Variant,
		"path", path,
		"plan", plan.Names(),
	)
	return app, nil
}

// BuildProfile resolves LEAD_VARIANT and applies the attachment limits.
func BuildProfile(cfg *appconfig.Config) (leads.Profile, error) {
	variant, err := leads.ParseVariant(cfg.LeadVariant)
	if err != nil {
		return leads.Profile{}, fmt.Errorf("bootstrap: LEAD_VARIANT: %w", err)
	}
	profile, err := leads.ProfileFor(variant)
	if err != nil {
		return leads.Profile{}, err
	}
	if profile.AcceptsAttachments() {
		if cfg.MaxAttachments > 0 {
			profile.MaxAttachments = cfg.MaxAttachments
		}
		if cfg.MaxAttachmentBytes > 0 {
			profile.MaxAttachmentBytes = cfg.MaxAttachmentBytes
		}
	}
	return profile, nil
}

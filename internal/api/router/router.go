package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/visitplus-leads/internal/http/middleware"
	"github.com/wolfman30/visitplus-leads/internal/intake"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/web"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	Intake *intake.Handler
	// IntakePath overrides the variant's default mount path.
	IntakePath  string
	RateLimiter httpmiddleware.Limiter

	Thanks         http.Handler
	MetricsHandler http.Handler

	LeadsHandler        *leads.Handler
	AdminAuthSecret     string
	AdminAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.SecurityHeaders)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", web.Health)
		if cfg.Thanks != nil {
			public.Method(http.MethodGet, "/thanks", cfg.Thanks)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Intake != nil {
			path := cfg.IntakePath
			if path == "" {
				path = cfg.Intake.Path()
			}
			// The endpoint answers OPTIONS and 405 itself, so every method is routed to it.
			// CORS goes first so a 429 is still readable cross-origin.
			public.With(intake.CORS, httpmiddleware.RateLimit(cfg.RateLimiter, cfg.Logger)).Handle(path, cfg.Intake)
		}
	})

	if cfg.LeadsHandler != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			if len(cfg.AdminAllowedOrigins) > 0 {
				admin.Use(httpmiddleware.CORS(cfg.AdminAllowedOrigins))
			}
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadsHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
		})
	}

	return r
}

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/app"
	"github.com/querydesk/querydesk/internal/config"
	"github.com/querydesk/querydesk/internal/handler"
	"github.com/querydesk/querydesk/internal/middleware"
	"github.com/querydesk/querydesk/internal/observability"
	"github.com/querydesk/querydesk/internal/ui"
)

// Routes builds the HTTP handler for a.
func Routes(a *app.App) http.Handler {
	cfg := a.Config

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	var job handler.ReportJob
	if a.Job != nil {
		job = a.Job
	}

	healthH := handler.NewHealthHandler(a.DB)
	askH := handler.NewAskHandler(a.Pipeline, a.Reporter, cfg.APIKeyHeader)
	queryH := handler.NewQueryHandler(a.Pipeline, cfg.APIKeyHeader)
	schemaH := handler.NewSchemaHandler(a.Describer, a.DB, a.Router)
	agentH := handler.NewAgentHandler(a.Agent, cfg.APIKeyHeader, cfg.AgentTimeout)
	reportH := handler.NewReportHandler(job, a.Scheduler)
	dashboard := ui.NewDashboard(a.Pipeline, cfg.APIKeyHeader, !cfg.IsDevelopment())

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig(cfg.CORSOrigins)
	corsCfg.MaxAge = config.DefaultCORSMaxAge
	if cfg.APIKeyHeader != "" && cfg.APIKeyHeader != "X-API-Key" {
		corsCfg.AllowedHeaders = append(corsCfg.AllowedHeaders, cfg.APIKeyHeader)
	}

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(corsCfg))
	r.Use(chiMiddleware.RealIP)
	r.Use(observability.MetricsMiddleware)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ui", dashboard.Index)

	// Auth + rate limiting for everything else
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute, cfg.APIKeyHeader),
	}
	if cfg.EnableAuth {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Post("/ui/ask", dashboard.Ask)

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Get("/schema", schemaH.Schema)
			r.Get("/schema/{table}", schemaH.Table)
			r.Get("/tables", schemaH.ListTables)
			r.Get("/profiles", schemaH.Profiles)

			r.Post("/query", queryH.Query)
			r.Post("/ask", askH.Ask)
			r.Post("/ask/email", askH.AskEmail)
			r.Post("/agent", agentH.QueryAgent)

			r.Post("/reports/target-achievement", reportH.TargetAchievement)
			r.Get("/reports/schedule", reportH.Schedule)
		})
	})

	return r
}

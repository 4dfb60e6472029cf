// Package app builds the long-lived components shared by the server and the
// CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/config"
	"github.com/querydesk/querydesk/internal/llm"
	"github.com/querydesk/querydesk/internal/notify"
	"github.com/querydesk/querydesk/internal/scheduler"
	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/service"
)

// App holds the process-scoped components. Optional parts are nil when
// their configuration is absent.
type App struct {
	Config    *config.Config
	DB        *service.MySQLService
	Describer schema.Describer
	Router    *service.ProfileRouter
	Pipeline  *agent.ReportHandler

	// Agent needs ANTHROPIC_API_KEY.
	Agent *agent.AgentHandler

	// Reporter, Job and Scheduler need the email settings.
	Reporter  *notify.Reporter
	Job       *scheduler.TargetAchievementJob
	Scheduler *scheduler.Scheduler
}

// New validates cfg and wires every component. Nothing connects to the
// database or the model until it is used.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// ─── Database ───────────────────────────────────────────────────────────────
	db, err := service.NewMySQLService(service.MySQLConfig{
		DatabaseURL:      cfg.DatabaseURL,
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetime:  cfg.ConnMaxLifetimeDuration(),
		StatementTimeout: cfg.StatementTimeoutDuration(),
		MaxRows:          cfg.MaxRows,
	})
	if err != nil {
		return nil, fmt.Errorf("mysql: %w", err)
	}
	a := &App{Config: cfg, DB: db}

	var describer schema.Describer
	switch cfg.SchemaSource {
	case config.SchemaSourceStatic:
		describer = schema.NewStatic()
	default:
		describer = schema.NewCatalog(db.DB(), db.Database())
	}
	if cfg.SchemaCacheTTL > 0 {
		describer = schema.NewCached(describer, cfg.SchemaCacheTTLDuration())
	}
	a.Describer = describer

	// ─── Remote generation ──────────────────────────────────────────────────────
	provider, err := llm.NewProvider(ctx, llm.ProviderConfig{
		Provider:    cfg.LLMProvider,
		APIKey:      cfg.ProviderAPIKey(),
		BaseURL:     cfg.ProviderBaseURL(),
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	resilient := llm.NewResilient(provider, llm.ResilienceConfig{
		Timeout:         cfg.GenerationTimeoutDuration(),
		MaxTries:        uint(max(cfg.GenerationMaxRetries, 1)),
		BreakerFailures: uint32(max(cfg.BreakerFailures, 0)),
		BreakerCooldown: cfg.BreakerCooldownDuration(),
	})

	// ─── Security ───────────────────────────────────────────────────────────────
	var piiDetector *security.PIIDetector
	if cfg.EnablePIIDetection {
		piiDetector = security.NewPIIDetector(cfg.PIIKeywords)
	}
	var dataMasker *security.DataMasker
	if cfg.EnableDataMasking {
		dataMasker = security.NewDataMasker(cfg.SensitiveColumns)
	}
	promptVal := security.NewPromptValidator(cfg.MaxPromptLength)
	sqlVal := security.NewSQLValidator()
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)

	// ─── Pipeline ───────────────────────────────────────────────────────────────
	a.Router = service.NewProfileRouter(service.DefaultProfiles(cfg.PivotCategories))
	a.Pipeline = agent.NewReportHandler(
		llm.NewTranslator(resilient),
		describer,
		db,
		a.Router,
		piiDetector,
		promptVal,
		sqlVal,
		dataMasker,
		auditLogger,
	)

	if cfg.AnthropicAPIKey != "" {
		sqlAgent := agent.NewSQLAgent(cfg.AnthropicAPIKey, cfg.AgentModel, cfg.AnthropicBaseURL)
		a.Agent = agent.NewAgentHandler(sqlAgent, db, describer, piiDetector, promptVal, sqlVal, dataMasker, auditLogger)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - tool agent disabled")
	}

	// ─── Email and scheduled report ─────────────────────────────────────────────
	if err := cfg.ValidateEmail(); err != nil {
		log.Warn().Err(err).Msg("email features disabled")
	} else if err := a.wireReports(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info().
		Str("provider", provider.Name()).
		Str("database", db.Database()).
		Str("schema_source", cfg.SchemaSource).
		Bool("agent_enabled", a.Agent != nil).
		Bool("email_enabled", a.Reporter != nil).
		Bool("data_masking", cfg.EnableDataMasking).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Msg("service configuration")

	return a, nil
}

func (a *App) wireReports(ctx context.Context) error {
	cfg := a.Config
	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SenderEmail,
		Password: cfg.SenderPassword,
	})
	if err != nil {
		return err
	}
	a.Reporter = notify.NewReporter(mailer, cfg.RecipientEmails)

	var targets service.TargetSource
	switch cfg.TargetSource {
	case config.TargetSourceSheets:
		targets, err = service.NewSheetsTargets(ctx, cfg.TargetSpreadsheetID, cfg.TargetSheetRange, cfg.GoogleApplicationCredentials)
		if err != nil {
			return fmt.Errorf("sheets targets: %w", err)
		}
	case config.TargetSourceMySQL, "":
		targets = service.NewMySQLTargets(a.DB.DB())
	default:
		return fmt.Errorf("unknown TARGET_SOURCE %q (want mysql or sheets)", cfg.TargetSource)
	}

	a.Job = scheduler.NewTargetAchievementJob(a.DB, targets, a.Reporter)
	a.Scheduler = scheduler.NewScheduler(config.DefaultReportRunTimeout)
	return a.Scheduler.Add(cfg.ReportSchedule, a.Job)
}

// ErrReportsDisabled is returned when a report is requested without the
// email settings.
var ErrReportsDisabled = errors.New("scheduled reports need SENDER_EMAIL, SENDER_PASSWORD and RECIPIENT_EMAIL")

// StartScheduler starts the cron loop.
func (a *App) StartScheduler() error {
	if a.Scheduler == nil {
		return ErrReportsDisabled
	}
	a.Scheduler.Start()
	if next, ok := a.Scheduler.Next(scheduler.TargetAchievementName); ok {
		log.Info().Time("next_run", next).Msg("next scheduled report")
	}
	return nil
}

// Close stops the scheduler and closes the pool.
func (a *App) Close() error {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// Package config loads settings from an optional JSON file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// MySQL
	DatabaseURL       string `json:"database_url"`
	DBMaxOpenConns    int    `json:"db_max_open_conns"`
	DBMaxIdleConns    int    `json:"db_max_idle_conns"`
	DBConnMaxLifetime int    `json:"db_conn_max_lifetime"` // seconds
	StatementTimeout  int    `json:"statement_timeout"`    // seconds
	MaxRows           int    `json:"max_rows"`

	// Schema description
	SchemaSource   string `json:"schema_source"`    // catalog or static
	SchemaCacheTTL int    `json:"schema_cache_ttl"` // seconds, 0 disables the cache

	// AI / LLM
	LLMProvider          string  `json:"llm_provider"`
	LLMModel             string  `json:"llm_model"`
	LLMTemperature       float32 `json:"llm_temperature"`
	LLMMaxTokens         int     `json:"llm_max_tokens"`
	GeminiAPIKey         string  `json:"gemini_api_key"`
	OpenAIAPIKey         string  `json:"openai_api_key"`
	OpenAIBaseURL        string  `json:"openai_base_url"`
	AnthropicAPIKey      string  `json:"anthropic_api_key"`
	AnthropicBaseURL     string  `json:"anthropic_base_url"` // override for a compatible proxy
	GenerationTimeout    int     `json:"generation_timeout"` // seconds
	GenerationMaxRetries int     `json:"generation_max_retries"`
	BreakerFailures      int     `json:"breaker_failures"`
	BreakerCooldown      int     `json:"breaker_cooldown"` // seconds

	// Tool agent
	AgentModel   string `json:"agent_model"`
	AgentTimeout int    `json:"agent_timeout"`

	// Report profiles
	PivotCategories []string `json:"pivot_categories"`

	// Security
	EnableDataMasking  bool     `json:"enable_data_masking"`
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	SensitiveColumns   []string `json:"sensitive_columns"`
	PIIKeywords        []string `json:"pii_keywords"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`
	MaxPromptLength    int      `json:"max_prompt_length"`

	// Email
	SenderEmail     string   `json:"sender_email"`
	SenderPassword  string   `json:"sender_password"`
	RecipientEmails []string `json:"recipient_emails"`
	SMTPHost        string   `json:"smtp_host"`
	SMTPPort        int      `json:"smtp_port"`

	// Scheduled report
	ReportSchedule               string `json:"report_schedule"`
	EnableScheduler              bool   `json:"enable_scheduler"` // run the schedule inside serve
	TargetSource                 string `json:"target_source"`    // mysql or sheets
	TargetSpreadsheetID          string `json:"target_spreadsheet_id"`
	TargetSheetRange             string `json:"target_sheet_range"`
	GoogleApplicationCredentials string `json:"google_application_credentials"`
}

// ConfigurationError lists required settings that are not set.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		Environment:          DefaultEnvironment,
		APIPrefix:            DefaultAPIPrefix,
		LogLevel:             DefaultLogLevel,
		CORSOrigins:          DefaultCORSOrigins,
		APIKeyHeader:         "X-API-Key",
		EnableAuth:           true,
		RateLimitPerMinute:   DefaultRateLimitPerMinute,
		DBMaxOpenConns:       DefaultDBMaxOpenConns,
		DBMaxIdleConns:       DefaultDBMaxIdleConns,
		DBConnMaxLifetime:    DefaultDBConnMaxLifetime,
		StatementTimeout:     DefaultStatementTimeout,
		MaxRows:              DefaultMaxRows,
		SchemaSource:         DefaultSchemaSource,
		SchemaCacheTTL:       DefaultSchemaCacheTTL,
		LLMProvider:          DefaultLLMProvider,
		LLMTemperature:       DefaultLLMTemperature,
		LLMMaxTokens:         DefaultLLMMaxTokens,
		GenerationTimeout:    DefaultGenerationTimeout,
		GenerationMaxRetries: DefaultGenerationMaxRetries,
		BreakerFailures:      DefaultBreakerFailures,
		BreakerCooldown:      DefaultBreakerCooldown,
		AgentTimeout:         DefaultAgentTimeout,
		PivotCategories:      DefaultPivotCategories,
		EnableDataMasking:    true,
		EnablePIIDetection:   true,
		SensitiveColumns:     DefaultSensitiveColumns,
		PIIKeywords:          DefaultPIIKeywords,
		EnableAuditLogging:   true,
		MaxPromptLength:      DefaultMaxPromptLength,
		SMTPHost:             DefaultSMTPHost,
		SMTPPort:             DefaultSMTPPort,
		ReportSchedule:       DefaultReportSchedule,
		TargetSource:         DefaultTargetSource,
		TargetSheetRange:     DefaultTargetSheetRange,
	}

	// .env never overrides variables already set in the environment
	if err := loadDotEnv(getEnv("QUERYDESK_ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	// Load from JSON config file if specified
	if path := getEnv("QUERYDESK_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Host, "QUERYDESK_HOST")
	setInt(&cfg.Port, "QUERYDESK_PORT")
	setString(&cfg.Environment, "QUERYDESK_ENV")
	setString(&cfg.LogLevel, "QUERYDESK_LOG_LEVEL")
	setList(&cfg.APIKeys, "QUERYDESK_API_KEYS")
	setList(&cfg.CORSOrigins, "QUERYDESK_CORS_ORIGINS")
	setBool(&cfg.EnableAuth, "ENABLE_AUTH")
	setInt(&cfg.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")

	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setInt(&cfg.StatementTimeout, "QUERYDESK_STATEMENT_TIMEOUT")
	setInt(&cfg.MaxRows, "QUERYDESK_MAX_ROWS")
	setString(&cfg.SchemaSource, "QUERYDESK_SCHEMA_SOURCE")
	setInt(&cfg.SchemaCacheTTL, "QUERYDESK_SCHEMA_CACHE_TTL")

	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.GeminiAPIKey, "GOOGLE_API_KEY")
	setString(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.AnthropicBaseURL, "ANTHROPIC_BASE_URL")
	setInt(&cfg.GenerationTimeout, "QUERYDESK_GENERATION_TIMEOUT")
	setString(&cfg.AgentModel, "AGENT_MODEL")

	setList(&cfg.PivotCategories, "PIVOT_CATEGORIES")

	setString(&cfg.SenderEmail, "EMAIL_USER")
	setString(&cfg.SenderEmail, "SENDER_EMAIL")
	setString(&cfg.SenderPassword, "EMAIL_PASS")
	setString(&cfg.SenderPassword, "SENDER_PASSWORD")
	setList(&cfg.RecipientEmails, "RECIPIENT_EMAIL")
	setString(&cfg.SMTPHost, "SMTP_HOST")
	setInt(&cfg.SMTPPort, "SMTP_PORT")

	setString(&cfg.ReportSchedule, "REPORT_SCHEDULE")
	setBool(&cfg.EnableScheduler, "ENABLE_SCHEDULER")
	setString(&cfg.TargetSource, "TARGET_SOURCE")
	setString(&cfg.TargetSpreadsheetID, "TARGET_SPREADSHEET_ID")
	setString(&cfg.TargetSheetRange, "TARGET_SHEET_RANGE")
	setString(&cfg.GoogleApplicationCredentials, "GOOGLE_APPLICATION_CREDENTIALS")
}

// Validate checks what every command needs: the database and the API key of
// the selected provider.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.DatabaseURL) == "" {
		missing = append(missing, "DATABASE_URL")
	}
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "gemini", "":
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q (want gemini, openai or anthropic)", c.LLMProvider)
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// ValidateEmail checks the settings the email features need.
func (c *Config) ValidateEmail() error {
	var missing []string
	if c.SenderEmail == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if c.SenderPassword == "" {
		missing = append(missing, "SENDER_PASSWORD")
	}
	if len(c.RecipientEmails) == 0 {
		missing = append(missing, "RECIPIENT_EMAIL")
	}
	if c.TargetSource == TargetSourceSheets && c.TargetSpreadsheetID == "" {
		missing = append(missing, "TARGET_SPREADSHEET_ID")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// EmailConfigured reports whether ValidateEmail would pass.
func (c *Config) EmailConfigured() bool { return c.ValidateEmail() == nil }

// ProviderAPIKey returns the key of the selected provider.
func (c *Config) ProviderAPIKey() string {
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// ProviderBaseURL returns the endpoint override of the selected provider.
func (c *Config) ProviderBaseURL() string {
	switch strings.ToLower(c.LLMProvider) {
	case "openai":
		return c.OpenAIBaseURL
	case "anthropic":
		return c.AnthropicBaseURL
	default:
		return ""
	}
}

func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) StatementTimeoutDuration() time.Duration { return seconds(c.StatementTimeout) }
func (c *Config) ConnMaxLifetimeDuration() time.Duration { return seconds(c.DBConnMaxLifetime) }
func (c *Config) SchemaCacheTTLDuration() time.Duration { return seconds(c.SchemaCacheTTL) }
func (c *Config) GenerationTimeoutDuration() time.Duration { return seconds(c.GenerationTimeout) }
func (c *Config) BreakerCooldownDuration() time.Duration { return seconds(c.BreakerCooldown) }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := getEnv(key, ""); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := getEnv(key, ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := getEnv(key, ""); v != "" {
		*dst = v == "true" || v == "1"
	}
}

func setList(dst *[]string, key string) {
	v := getEnv(key, "")
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}

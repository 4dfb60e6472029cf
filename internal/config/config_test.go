package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydesk/querydesk/internal/config"
)

// isolate points the loader at an empty directory so a developer's .env
// does not leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QUERYDESK_ENV_FILE", filepath.Join(dir, ".env"))
	t.Setenv("QUERYDESK_CONFIG", "")
	for _, k := range []string{
		"DATABASE_URL", "LLM_PROVIDER", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"ANTHROPIC_API_KEY", "SENDER_EMAIL", "EMAIL_USER", "SENDER_PASSWORD", "EMAIL_PASS",
		"RECIPIENT_EMAIL", "PIVOT_CATEGORIES", "REPORT_SCHEDULE", "TARGET_SOURCE",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "0 9 * * *", cfg.ReportSchedule)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, []string{"A", "B", "C", "D"}, cfg.PivotCategories)
	assert.Equal(t, 30*time.Second, cfg.StatementTimeoutDuration())
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "mysql://u:p@db/sales")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMAIL_USER", "legacy@example.com")
	t.Setenv("SENDER_EMAIL", "reports@example.com")
	t.Setenv("RECIPIENT_EMAIL", "a@example.com, b@example.com,")
	t.Setenv("PIVOT_CATEGORIES", "Gold,Silver")
	t.Setenv("QUERYDESK_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql://u:p@db/sales", cfg.DatabaseURL)
	assert.Equal(t, "sk-test", cfg.ProviderAPIKey())
	assert.Equal(t, "reports@example.com", cfg.SenderEmail, "SENDER_EMAIL wins over EMAIL_USER")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.RecipientEmails)
	assert.Equal(t, []string{"Gold", "Silver"}, cfg.PivotCategories)
	assert.Equal(t, 9090, cfg.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=from-file\nDATABASE_URL=from-file\n"), 0o600))
	t.Setenv("DATABASE_URL", "from-env")
	// An empty variable still counts as set for godotenv.
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.GeminiAPIKey)
}

func TestLoadJSONFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "querydesk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port": 7000, "max_rows": 50, "target_source": "sheets"}`), 0o600))
	t.Setenv("QUERYDESK_CONFIG", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 50, cfg.MaxRows)
	assert.Equal(t, config.TargetSourceSheets, cfg.TargetSource)
}

func TestValidateReportsMissing(t *testing.T) {
	cfg := &config.Config{LLMProvider: "anthropic"}

	err := cfg.Validate()
	var ce *config.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"DATABASE_URL", "ANTHROPIC_API_KEY"}, ce.Missing)

	cfg = &config.Config{DatabaseURL: "x", LLMProvider: "mistral"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.False(t, errors.As(err, &ce))
}

func TestValidateEmail(t *testing.T) {
	cfg := &config.Config{TargetSource: config.TargetSourceSheets}
	err := cfg.ValidateEmail()
	var ce *config.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []string{"SENDER_EMAIL", "SENDER_PASSWORD", "RECIPIENT_EMAIL", "TARGET_SPREADSHEET_ID"}, ce.Missing)
	assert.False(t, cfg.EmailConfigured())

	cfg = &config.Config{SenderEmail: "a", SenderPassword: "b", RecipientEmails: []string{"c"}, TargetSource: config.TargetSourceMySQL}
	assert.True(t, cfg.EmailConfigured())
}

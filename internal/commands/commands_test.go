package commands

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydesk/querydesk/internal/config"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/report"
)

func TestRootRegistersCommands(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{{"serve"}, {"ask"}, {"schema"}, {"report", "run"}, {"report", "schedule"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := printTable(&buf, report.Table{
		Columns: []string{"spoc", "loanamount"},
		Rows: [][]any{
			{"Asha", 2.5},
			{report.GrandTotalLabel, 2.5},
		},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "spoc         loanamount", lines[0])
	assert.Equal(t, "Asha         2.5", lines[1])
	assert.Equal(t, "Grand Total  2.5", lines[2])
}

func TestPrintTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTable(&buf, report.Table{Columns: []string{"spoc"}}))
	assert.Equal(t, "The query returned no rows.\n", buf.String())
}

func TestPrintAnswerSQLError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printAnswer(&buf, &models.AskResponse{
		Status:       models.StatusSQLError,
		Profile:      "general",
		GeneratedSQL: "SELECT `x` FROM `loan`",
		Error:        "Unknown column 'x'",
	}))
	assert.Contains(t, buf.String(), "SELECT `x` FROM `loan`")
	assert.Contains(t, buf.String(), "Error (sql_error): Unknown column 'x'")
}

func TestAskWithoutConfigurationFails(t *testing.T) {
	t.Setenv("QUERYDESK_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("QUERYDESK_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	root := NewRootCmd()
	root.SetArgs([]string{"ask", "total loan amount"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, []string{"DATABASE_URL", "GEMINI_API_KEY"}, cfgErr.Missing)
}

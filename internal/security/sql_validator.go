package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"vitess.io/vitess/go/vt/sqlparser"
)

// mysqlServerVersion is the dialect the statement parser accepts.
const mysqlServerVersion = "8.0.30"

// sqlDangerousPatterns catch stacked statements, file access, time-based
// probes and tautology injection before the statement is parsed.
var sqlDangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*DROP\s+`),
	regexp.MustCompile(`(?i);\s*DELETE\s+`),
	regexp.MustCompile(`(?i);\s*INSERT\s+`),
	regexp.MustCompile(`(?i);\s*UPDATE\s+`),
	regexp.MustCompile(`(?i);\s*ALTER\s+`),
	regexp.MustCompile(`(?i);\s*CREATE\s+`),
	regexp.MustCompile(`(?i);\s*TRUNCATE\s+`),
	regexp.MustCompile(`(?i);\s*EXEC\s*\(?`),
	regexp.MustCompile(`(?i);\s*EXECUTE\s+`),
	regexp.MustCompile(`(?i)\bINTO\s+OUTFILE\b`),
	regexp.MustCompile(`(?i)\bINTO\s+DUMPFILE\b`),
	regexp.MustCompile(`(?i)\bINTO\s+@`),
	regexp.MustCompile(`(?i)\bLOAD\s+DATA\b`),
	regexp.MustCompile(`(?i)\bLOAD_FILE\s*\(`),
	regexp.MustCompile(`(?i)\bBENCHMARK\s*\(`),
	regexp.MustCompile(`(?i)\bSLEEP\s*\(`),
	regexp.MustCompile(`(?i)\bGET_LOCK\s*\(`),
	regexp.MustCompile(`(?i)\bFOR\s+UPDATE\b`),
	regexp.MustCompile(`(?i)\bLOCK\s+IN\s+SHARE\s+MODE\b`),
	regexp.MustCompile(`'.*--`),  // comment injection after string literal
	regexp.MustCompile(`;\s*--`), // statement terminator + comment
	regexp.MustCompile(`/\*.*?\*/`),
	regexp.MustCompile(`(?i)\bor\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\band\s+1\s*=\s*1\b`),
	regexp.MustCompile(`(?i)\bor\s+'1'\s*=\s*'1'`),
	regexp.MustCompile(`(?i)\band\s+'1'\s*=\s*'1'`),
}

// SQLRejectedError is returned for statements outside the read-only allowlist
type SQLRejectedError struct {
	Reason string
}

func (e *SQLRejectedError) Error() string { return "SQL rejected: " + e.Reason }

// SQLValidator accepts a single SELECT, UNION or WITH ... SELECT statement
type SQLValidator struct {
	parser *sqlparser.Parser
}

func NewSQLValidator() *SQLValidator {
	p, err := sqlparser.New(sqlparser.Options{MySQLServerVersion: mysqlServerVersion})
	if err != nil {
		// Only reachable with a malformed version string; fall back to the
		// pattern checks.
		log.Error().Err(err).Msg("sql parser init failed, statement type checks disabled")
	}
	return &SQLValidator{parser: p}
}

// Validate returns an error string if SQL is invalid, or empty string if OK
func (v *SQLValidator) Validate(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return "SQL cannot be empty"
	}

	upperSQL := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upperSQL, "SELECT") && !strings.HasPrefix(upperSQL, "WITH") && !strings.HasPrefix(upperSQL, "(") {
		return "only SELECT queries are allowed"
	}

	for _, pattern := range sqlDangerousPatterns {
		if pattern.MatchString(trimmed) {
			return "SQL injection pattern detected: " + pattern.String()
		}
	}

	if v.parser == nil {
		return ""
	}

	pieces, err := v.parser.SplitStatementToPieces(trimmed)
	if err != nil {
		return fmt.Sprintf("cannot split statement: %v", err)
	}
	if len(pieces) != 1 {
		return fmt.Sprintf("exactly one statement is allowed, got %d", len(pieces))
	}

	stmt, err := v.parser.Parse(pieces[0])
	if err != nil {
		return fmt.Sprintf("cannot parse statement: %v", err)
	}
	switch stmt.(type) {
	case sqlparser.SelectStatement:
		return ""
	default:
		return fmt.Sprintf("only SELECT queries are allowed, got %T", stmt)
	}
}

// Check is Validate as an error value.
func (v *SQLValidator) Check(sql string) error {
	if msg := v.Validate(sql); msg != "" {
		return &SQLRejectedError{Reason: msg}
	}
	return nil
}

package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// QuestionEvent is one pass through the question pipeline.
type QuestionEvent struct {
	Question        string
	APIKey          string
	Profile         string
	Provider        string
	GeneratedSQL    string
	Outcome         string
	RowCount        int
	ExecutionTimeMs int64
	Error           string
}

// LogQuestion records a natural-language question. The question, key and
// SQL are logged as hashes only.
func (a *AuditLogger) LogQuestion(e QuestionEvent) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "question_audit").
		Str("question_hash", shortHash(e.Question)).
		Str("api_key_hash", shortHash(e.APIKey)).
		Str("sql_hash", shortHash(e.GeneratedSQL)).
		Str("profile", e.Profile).
		Str("provider", e.Provider).
		Str("outcome", e.Outcome).
		Int("row_count", e.RowCount).
		Int64("execution_time_ms", e.ExecutionTimeMs)
	if e.Error != "" {
		evt = evt.Str("error", e.Error)
	}
	evt.Msg("audit")
}

// LogQuery records a direct SQL execution event
func (a *AuditLogger) LogQuery(sql, apiKey string, executionTimeMs int64, rowCount int, success bool, errMsg string) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "query_audit").
		Str("sql_hash", shortHash(sql)).
		Str("api_key_hash", shortHash(apiKey)).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)
	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogAgentRequest records a tool-agent request event
func (a *AuditLogger) LogAgentRequest(prompt, apiKey, lastSQL string, toolCalls int, executionTimeMs int64) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "agent_audit").
		Str("prompt_hash", shortHash(prompt)).
		Str("api_key_hash", shortHash(apiKey)).
		Str("sql_hash", shortHash(lastSQL)).
		Int("tool_calls", toolCalls).
		Int64("execution_time_ms", executionTimeMs).
		Msg("agent audit")
}

// shortHash is the first 16 hex chars of sha256(s); empty input stays empty.
func shortHash(s string) string {
	if s == "" {
		return ""
	}
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])[:16]
}

package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Response statuses for ask-style endpoints.
const (
	StatusSuccess  = "success"
	StatusSQLError = "sql_error"
	StatusNoQuery  = "no_query"
	StatusDryRun   = "dry_run"
	StatusError    = "error"
)

// QueryMetadata describes one MySQL execution
type QueryMetadata struct {
	ExecutionTimeMs int64    `json:"execution_time_ms"`
	Truncated       bool     `json:"truncated"`
	Applied         []string `json:"applied_rules,omitempty"`
	Masked          bool     `json:"masked"`
}

// QueryResponse is a shaped result table
type QueryResponse struct {
	Status   string        `json:"status"`
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	RowCount int           `json:"row_count"`
	Metadata QueryMetadata `json:"metadata"`
}

// TableInfo represents a MySQL table
type TableInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NumRows uint64 `json:"num_rows"`
}

// AskResponse is returned by POST /api/v1/ask
type AskResponse struct {
	Status       string                 `json:"status"`
	Question     string                 `json:"question"`
	Profile      string                 `json:"profile"`
	GeneratedSQL string                 `json:"generated_sql,omitempty"`
	Result       *QueryResponse         `json:"result,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// EmailResponse is returned by the email endpoints
type EmailResponse struct {
	Status     string   `json:"status"`
	Subject    string   `json:"subject"`
	Recipients []string `json:"recipients"`
	RowCount   int      `json:"row_count"`
	SQL        string   `json:"sql,omitempty"`
}

// AgentResponse is returned by POST /api/v1/agent
type AgentResponse struct {
	Status        string                 `json:"status"`
	Prompt        string                 `json:"prompt"`
	Answer        string                 `json:"answer"`
	LastSQL       string                 `json:"last_sql,omitempty"`
	ToolsUsed     []string               `json:"tools_used"`
	AgentMetadata map[string]interface{} `json:"agent_metadata"`
}

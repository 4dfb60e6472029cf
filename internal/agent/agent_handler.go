package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/service"
	"github.com/querydesk/querydesk/internal/sqltext"
	"github.com/querydesk/querydesk/internal/tools"
)

const baseSystemPrompt = `You are an expert data analyst for a loan sales team with deep knowledge of MySQL.

Your task is to answer questions about the sales database using the tools provided.

RULES:
1. Generate only SELECT queries - never INSERT, UPDATE, DELETE, DROP, or DDL
2. Wrap every table and column name in backticks
3. Loan amounts are stored in rupees; one crore is 10,000,000
4. ALWAYS wrap your final SQL in a code block exactly like this:
` + "```sql" + `
SELECT ...
` + "```" + `
5. Execute the SQL with execute_sql before answering
6. Explain results in plain language
7. For JOIN queries: use sample_rows to verify join key values match before executing`

// AgentHandler answers open-ended questions with the tool-calling agent
type AgentHandler struct {
	agent       *SQLAgent
	db          *service.MySQLService
	describer   schema.Describer
	piiDetector *security.PIIDetector
	promptVal   *security.PromptValidator
	sqlVal      *security.SQLValidator
	dataMasker  *security.DataMasker
	auditLogger *security.AuditLogger
}

func NewAgentHandler(
	agent *SQLAgent,
	db *service.MySQLService,
	describer schema.Describer,
	piiDetector *security.PIIDetector,
	promptVal *security.PromptValidator,
	sqlVal *security.SQLValidator,
	dataMasker *security.DataMasker,
	auditLogger *security.AuditLogger,
) *AgentHandler {
	return &AgentHandler{
		agent:       agent,
		db:          db,
		describer:   describer,
		piiDetector: piiDetector,
		promptVal:   promptVal,
		sqlVal:      sqlVal,
		dataMasker:  dataMasker,
		auditLogger: auditLogger,
	}
}

// systemPrompt appends the current schema to the base prompt. A failed
// describe falls back to the base prompt; the agent can still list tables.
func (h *AgentHandler) systemPrompt(ctx context.Context) string {
	desc, err := h.describer.Describe(ctx)
	if err != nil || desc.Empty() {
		if err != nil {
			log.Warn().Err(err).Msg("agent: describe schema failed, using base prompt")
		}
		return baseSystemPrompt
	}

	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)
	sb.WriteString("\n\n## Available tables\n")
	sb.WriteString(desc.Render())
	sb.WriteString("\nSince schemas are already provided above, you can skip list_tables and get_table_schema. Go directly to sample_rows for JOIN queries, then write and execute the SQL.")
	return sb.String()
}

// Handle processes an agent request
func (h *AgentHandler) Handle(ctx context.Context, req *models.AgentRequest, apiKey string) (*models.AgentResponse, error) {
	start := time.Now()
	req.SetDefaults()
	metadata := map[string]interface{}{
		"model":  h.agent.Model(),
		"method": "agent",
	}

	// 1. PII detection
	if found, kw := h.piiDetector.Detect(req.Prompt); found {
		metadata["pii_check"] = "blocked: " + kw
		return &models.AgentResponse{Status: models.StatusError, Prompt: req.Prompt, AgentMetadata: metadata},
			fmt.Errorf("%w: PII detected in prompt: %s", ErrRejected, kw)
	}
	metadata["pii_check"] = "passed"

	// 2. Prompt validation
	if vr := h.promptVal.Validate(req.Prompt); !vr.Valid {
		metadata["prompt_validation"] = "blocked: " + vr.Message
		return &models.AgentResponse{Status: models.StatusError, Prompt: req.Prompt, AgentMetadata: metadata},
			fmt.Errorf("%w: %s", ErrRejected, vr.Message)
	}
	metadata["prompt_validation"] = "passed"

	// 3. Tools and prompt
	agentTools := []tools.Tool{
		tools.ListTablesTool(h.db),
		tools.GetTableSchemaTool(h.describer),
		tools.SampleRowsTool(h.db, h.dataMasker),
		tools.ExecuteSQLTool(h.db, h.sqlVal, h.dataMasker),
	}
	systemPrompt := h.systemPrompt(ctx)

	// 4. Agent loop
	agentCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := h.agent.Run(agentCtx, systemPrompt, req.Prompt, agentTools)
	if err != nil {
		return nil, fmt.Errorf("agent run: %w", err)
	}
	metadata["tools_used"] = result.ToolsUsed

	lastSQL := extractSQL(result.Answer)
	if lastSQL == "" {
		lastSQL = result.LastSQL
	}

	execTimeMs := time.Since(start).Milliseconds()
	h.auditLogger.LogAgentRequest(req.Prompt, apiKey, lastSQL, len(result.ToolsUsed), execTimeMs)

	return &models.AgentResponse{
		Status:        models.StatusSuccess,
		Prompt:        req.Prompt,
		Answer:        result.Answer,
		LastSQL:       lastSQL,
		ToolsUsed:     result.ToolsUsed,
		AgentMetadata: metadata,
	}, nil
}

// extractSQL returns the first fenced block of text that holds a SELECT or
// WITH statement.
func extractSQL(text string) string {
	parts := strings.Split(text, "```")
	for i := 1; i < len(parts); i += 2 {
		candidate := sqltext.Sanitize(parts[i])
		up := strings.ToUpper(candidate)
		if strings.HasPrefix(up, "SELECT") || strings.HasPrefix(up, "WITH") {
			return strings.TrimSuffix(candidate, ";")
		}
	}
	return ""
}

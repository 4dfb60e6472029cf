// Package agent runs natural-language questions through the report pipeline
// and hosts the tool-calling SQL agent.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/llm"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/observability"
	"github.com/querydesk/querydesk/internal/report"
	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/service"
	"github.com/querydesk/querydesk/internal/sqltext"
)

// ErrNoQuery is reported when the model's answer holds no SQL after
// sanitizing.
var ErrNoQuery = errors.New("model did not return a SQL query")

// ErrRejected wraps input refused before any remote call is made.
var ErrRejected = errors.New("request rejected")

// ReportHandler orchestrates the question → SQL → execute → shape pipeline
type ReportHandler struct {
	translator  *llm.Translator
	describer   schema.Describer
	db          *service.MySQLService
	router      *service.ProfileRouter
	piiDetector *security.PIIDetector
	promptVal   *security.PromptValidator
	sqlVal      *security.SQLValidator
	dataMasker  *security.DataMasker
	auditLogger *security.AuditLogger
}

// NewReportHandler creates a handler with all security components wired in
func NewReportHandler(
	translator *llm.Translator,
	describer schema.Describer,
	db *service.MySQLService,
	router *service.ProfileRouter,
	piiDetector *security.PIIDetector,
	promptVal *security.PromptValidator,
	sqlVal *security.SQLValidator,
	dataMasker *security.DataMasker,
	auditLogger *security.AuditLogger,
) *ReportHandler {
	return &ReportHandler{
		translator:  translator,
		describer:   describer,
		db:          db,
		router:      router,
		piiDetector: piiDetector,
		promptVal:   promptVal,
		sqlVal:      sqlVal,
		dataMasker:  dataMasker,
		auditLogger: auditLogger,
	}
}

// Router exposes the profile router for listing profiles.
func (h *ReportHandler) Router() *service.ProfileRouter { return h.router }

// Handle answers one question. Database refusals and empty model answers are
// reported in the response status; the returned error is reserved for
// rejected input, remote generation and transport failures.
func (h *ReportHandler) Handle(ctx context.Context, req *models.AskRequest, apiKey string) (*models.AskResponse, error) {
	start := time.Now()
	req.SetDefaults()

	resp := &models.AskResponse{
		Status:   models.StatusError,
		Question: req.Question,
		Metadata: map[string]interface{}{
			"provider": h.translator.Provider(),
		},
	}
	event := security.QuestionEvent{Question: req.Question, APIKey: apiKey, Provider: h.translator.Provider()}
	outcome := observability.OutcomeTransportErr
	defer func() {
		event.Profile = resp.Profile
		event.GeneratedSQL = resp.GeneratedSQL
		event.Outcome = outcome
		event.ExecutionTimeMs = time.Since(start).Milliseconds()
		if resp.Result != nil {
			event.RowCount = resp.Result.RowCount
		}
		h.auditLogger.LogQuestion(event)
		observability.ObserveQuestion(resp.Profile, outcome)
	}()

	// 1. PII detection
	if found, kw := h.piiDetector.Detect(req.Question); found {
		resp.Metadata["pii_check"] = "blocked: " + kw
		outcome = observability.OutcomeRejected
		event.Error = "pii: " + kw
		return resp, fmt.Errorf("%w: PII detected in question: %s", ErrRejected, kw)
	}
	resp.Metadata["pii_check"] = "passed"

	// 2. Prompt validation
	if vr := h.promptVal.Validate(req.Question); !vr.Valid {
		resp.Metadata["prompt_validation"] = "blocked: " + vr.Message
		outcome = observability.OutcomeRejected
		event.Error = vr.Message
		return resp, fmt.Errorf("%w: %s", ErrRejected, vr.Message)
	}
	resp.Metadata["prompt_validation"] = "passed"

	// 3. Profile
	routing, err := h.router.Resolve(req.Question, req.Profile)
	if err != nil {
		outcome = observability.OutcomeRejected
		event.Error = err.Error()
		return resp, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	profile := routing.Profile
	resp.Profile = profile.Name
	resp.Metadata["profile_confidence"] = routing.Confidence
	resp.Metadata["routing_reasoning"] = routing.Reasoning

	// 4. Schema
	desc, err := h.describer.Describe(ctx)
	if err != nil {
		event.Error = err.Error()
		return resp, fmt.Errorf("describe schema: %w", err)
	}
	if desc.Empty() {
		log.Warn().Msg("schema description is empty, generated SQL will be a guess")
	}

	// 5. Translate
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()
	raw, err := h.translator.Translate(genCtx, llm.Request{
		Question:   req.Question,
		Schema:     desc.Render(),
		Directives: profile.Directives,
	})
	if err != nil {
		outcome = observability.OutcomeGenerationErr
		event.Error = err.Error()
		return resp, err
	}

	// 6. Sanitize
	sql := sqltext.Sanitize(raw)
	resp.GeneratedSQL = sql
	if sql == "" {
		resp.Status = models.StatusNoQuery
		resp.Error = ErrNoQuery.Error()
		outcome = observability.OutcomeNoQuery
		return resp, nil
	}

	// 7. SQL allowlist
	if err := h.sqlVal.Check(sql); err != nil {
		resp.Metadata["sql_validation"] = "blocked"
		outcome = observability.OutcomeRejected
		event.Error = err.Error()
		return resp, err
	}
	resp.Metadata["sql_validation"] = "passed"

	if req.DryRun {
		resp.Status = models.StatusDryRun
		outcome = observability.OutcomeSuccess
		return resp, nil
	}

	// 8. Execute, mask, shape
	result, err := h.run(ctx, sql, profile.Rules, true)
	if err != nil {
		var sqlErr *service.SQLExecutionError
		if errors.As(err, &sqlErr) {
			resp.Status = models.StatusSQLError
			resp.Error = sqlErr.Message
			outcome = observability.OutcomeSQLErr
			event.Error = sqlErr.Message
			return resp, nil
		}
		event.Error = err.Error()
		return resp, err
	}

	resp.Status = models.StatusSuccess
	resp.Result = result
	outcome = observability.OutcomeSuccess
	log.Info().
		Str("profile", profile.Name).
		Int("rows", result.RowCount).
		Strs("applied", result.Metadata.Applied).
		Dur("duration", time.Since(start)).
		Msg("question answered")
	return resp, nil
}

// Query executes caller-supplied SQL after the allowlist check and shapes it
// with the named profile, if any.
func (h *ReportHandler) Query(ctx context.Context, req *models.QueryRequest, apiKey string) (*models.QueryResponse, error) {
	start := time.Now()

	var rules report.Rules
	if req.Profile != "" {
		p, ok := h.router.Profile(req.Profile)
		if !ok {
			return nil, fmt.Errorf("%w: unknown profile %q", ErrRejected, req.Profile)
		}
		rules = p.Rules
	}

	if err := h.sqlVal.Check(req.SQL); err != nil {
		h.auditLogger.LogQuery(req.SQL, apiKey, 0, 0, false, err.Error())
		return nil, err
	}

	mask := req.Mask == nil || *req.Mask
	result, err := h.run(ctx, req.SQL, rules, mask)
	if err != nil {
		h.auditLogger.LogQuery(req.SQL, apiKey, time.Since(start).Milliseconds(), 0, false, err.Error())
		return nil, err
	}
	h.auditLogger.LogQuery(req.SQL, apiKey, time.Since(start).Milliseconds(), result.RowCount, true, "")
	return result, nil
}

func (h *ReportHandler) run(ctx context.Context, sql string, rules report.Rules, mask bool) (*models.QueryResponse, error) {
	res, err := h.db.Execute(ctx, sql)
	if err != nil {
		return nil, err
	}

	table := res.Table
	masked := false
	if mask {
		table, masked = h.dataMasker.MaskTable(table)
	}
	shaped := report.Shape(table, rules)

	return &models.QueryResponse{
		Status:   models.StatusSuccess,
		Columns:  shaped.Table.Columns,
		Rows:     shaped.Table.Rows,
		RowCount: len(shaped.Table.Rows),
		Metadata: models.QueryMetadata{
			ExecutionTimeMs: res.Duration.Milliseconds(),
			Truncated:       res.Truncated,
			Applied:         shaped.Applied,
			Masked:          masked,
		},
	}, nil
}

// Table returns the result of a successful response as a report table.
func Table(r *models.QueryResponse) report.Table {
	if r == nil {
		return report.Table{}
	}
	return report.Table{Columns: r.Columns, Rows: r.Rows}
}

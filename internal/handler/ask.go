package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/notify"
)

// AskHandler handles the natural-language endpoints
type AskHandler struct {
	pipeline     *agent.ReportHandler
	reporter     *notify.Reporter
	apiKeyHeader string
}

// NewAskHandler wires the pipeline. reporter may be nil when email is not
// configured.
func NewAskHandler(pipeline *agent.ReportHandler, reporter *notify.Reporter, apiKeyHeader string) *AskHandler {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &AskHandler{pipeline: pipeline, reporter: reporter, apiKeyHeader: apiKeyHeader}
}

// Ask handles POST /api/v1/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := h.pipeline.Handle(r.Context(), &req, r.Header.Get(h.apiKeyHeader))
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

// AskEmail handles POST /api/v1/ask/email: answers the question and mails
// the shaped table.
func (h *AskHandler) AskEmail(w http.ResponseWriter, r *http.Request) {
	if h.reporter == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "email is not configured")
		return
	}

	var req models.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		models.WriteError(w, http.StatusBadRequest, "question is required")
		return
	}
	req.DryRun = false

	resp, err := h.pipeline.Handle(r.Context(), &req.AskRequest, r.Header.Get(h.apiKeyHeader))
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	if resp.Status != models.StatusSuccess {
		// nothing to mail; report why
		models.WriteJSON(w, http.StatusOK, resp)
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = req.Question
	}
	table := agent.Table(resp.Result)
	to, err := h.reporter.SendReport(r.Context(), subject, table)
	if err != nil {
		writePipelineError(w, r, err)
		return
	}

	models.WriteJSON(w, http.StatusOK, models.EmailResponse{
		Status:     models.StatusSuccess,
		Subject:    subject,
		Recipients: to,
		RowCount:   resp.Result.RowCount,
		SQL:        resp.GeneratedSQL,
	})
}

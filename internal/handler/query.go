package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/service"
)

// QueryHandler handles POST /api/v1/query (direct SQL)
type QueryHandler struct {
	pipeline     *agent.ReportHandler
	apiKeyHeader string
}

func NewQueryHandler(pipeline *agent.ReportHandler, apiKeyHeader string) *QueryHandler {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &QueryHandler{pipeline: pipeline, apiKeyHeader: apiKeyHeader}
}

// Query handles POST /api/v1/query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		models.WriteError(w, http.StatusBadRequest, "sql is required")
		return
	}

	resp, err := h.pipeline.Query(r.Context(), &req, r.Header.Get(h.apiKeyHeader))
	if err != nil {
		var sqlErr *service.SQLExecutionError
		if errors.As(err, &sqlErr) {
			models.WriteErrorDetail(w, http.StatusUnprocessableEntity, "query failed", sqlErr.Message)
			return
		}
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

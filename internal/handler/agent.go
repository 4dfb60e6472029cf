package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/models"
)

// AgentHandler handles POST /api/v1/agent
type AgentHandler struct {
	agent          *agent.AgentHandler
	apiKeyHeader   string
	defaultTimeout int
}

// NewAgentHandler accepts a nil agent; requests then get 503.
// defaultTimeout (seconds) applies to requests that set none.
func NewAgentHandler(a *agent.AgentHandler, apiKeyHeader string, defaultTimeout int) *AgentHandler {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &AgentHandler{agent: a, apiKeyHeader: apiKeyHeader, defaultTimeout: defaultTimeout}
}

// QueryAgent handles POST /api/v1/agent
func (h *AgentHandler) QueryAgent(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "agent is not configured (set ANTHROPIC_API_KEY)")
		return
	}

	var req models.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		models.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Timeout == 0 {
		req.Timeout = h.defaultTimeout
	}

	resp, err := h.agent.Handle(r.Context(), &req, r.Header.Get(h.apiKeyHeader))
	if err != nil {
		if resp != nil {
			models.WriteJSON(w, errorStatus(err), resp)
			return
		}
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, resp)
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/llm"
	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/notify"
	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/service"
)

// errorStatus maps pipeline errors onto HTTP status codes.
func errorStatus(err error) int {
	var (
		rejected *security.SQLRejectedError
		remote   *llm.RemoteGenerationError
		sqlErr   *service.SQLExecutionError
		dbErr    *service.TransportError
		sendErr  *notify.SendError
	)
	switch {
	case errors.Is(err, agent.ErrRejected):
		return http.StatusBadRequest
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sqlErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &remote), errors.As(err, &sendErr):
		return http.StatusBadGateway
	case errors.As(err, &dbErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	evt := log.Warn()
	if status >= http.StatusInternalServerError {
		evt = log.Error()
	}
	evt.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	models.WriteError(w, status, err.Error())
}

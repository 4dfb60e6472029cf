package models

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteErrorDetail(w, code, message, "")
}

// WriteErrorDetail adds a diagnostic detail, e.g. the database message for a
// rejected statement.
func WriteErrorDetail(w http.ResponseWriter, code int, message, detail string) {
	WriteJSON(w, code, ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    code,
		Detail:  detail,
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

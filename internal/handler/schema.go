package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/querydesk/querydesk/internal/models"
	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/service"
)

// TableLister lists the physical tables of the connected database.
type TableLister interface {
	ListTables(ctx context.Context) ([]models.TableInfo, error)
}

// SchemaHandler serves the schema description and report profiles
type SchemaHandler struct {
	describer schema.Describer
	tables    TableLister
	router    *service.ProfileRouter
}

func NewSchemaHandler(describer schema.Describer, tables TableLister, router *service.ProfileRouter) *SchemaHandler {
	return &SchemaHandler{describer: describer, tables: tables, router: router}
}

// Schema handles GET /api/v1/schema
func (h *SchemaHandler) Schema(w http.ResponseWriter, r *http.Request) {
	desc, err := h.describer.Describe(r.Context())
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"tables":   desc.Tables,
		"rendered": desc.Render(),
	})
}

// Table handles GET /api/v1/schema/{table}
func (h *SchemaHandler) Table(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "table")
	desc, err := h.describer.Describe(r.Context())
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	t, ok := desc.Table(name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "table not found: "+name)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"table":  t,
	})
}

// ListTables handles GET /api/v1/tables
func (h *SchemaHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	if h.tables == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "database is not configured")
		return
	}
	tables, err := h.tables.ListTables(r.Context())
	if err != nil {
		writePipelineError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"tables": tables,
		"count":  len(tables),
	})
}

// Profiles handles GET /api/v1/profiles
func (h *SchemaHandler) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles := h.router.Profiles()
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"profiles": profiles,
		"count":    len(profiles),
	})
}

package ui

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	gomponents "maragu.dev/gomponents"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/middleware"
	"github.com/querydesk/querydesk/internal/models"
)

const defaultTitle = "QueryDesk"

// Dashboard serves GET /ui and POST /ui/ask
type Dashboard struct {
	pipeline     *agent.ReportHandler
	apiKeyHeader string
	secureCookie bool
}

// NewDashboard wires the pipeline. secureCookie marks the api_key cookie
// Secure, which browsers only send over HTTPS.
func NewDashboard(pipeline *agent.ReportHandler, apiKeyHeader string, secureCookie bool) *Dashboard {
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &Dashboard{pipeline: pipeline, apiKeyHeader: apiKeyHeader, secureCookie: secureCookie}
}

// Index handles GET /ui
func (d *Dashboard) Index(w http.ResponseWriter, r *http.Request) {
	_, err := r.Cookie(middleware.APIKeyCookie)
	d.render(w, http.StatusOK, formState{HasKey: err == nil}, nil)
}

// Ask handles POST /ui/ask. Every outcome, failures included, is shown
// inline on the page.
func (d *Dashboard) Ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		d.render(w, http.StatusBadRequest, formState{}, &result{Error: "invalid form: " + err.Error()})
		return
	}

	form := formState{
		Question: strings.TrimSpace(r.PostFormValue("question")),
		Profile:  strings.TrimSpace(r.PostFormValue("profile")),
	}
	if key := r.PostFormValue("api_key"); key != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.APIKeyCookie,
			Value:    key,
			Path:     "/ui",
			HttpOnly: true,
			Secure:   d.secureCookie,
			SameSite: http.SameSiteStrictMode,
		})
		form.HasKey = true
	} else if _, err := r.Cookie(middleware.APIKeyCookie); err == nil {
		form.HasKey = true
	}

	if form.Question == "" {
		d.render(w, http.StatusBadRequest, form, &result{Error: "question is required"})
		return
	}

	req := models.AskRequest{Question: form.Question}
	if form.Profile != "" {
		req.Profile = &form.Profile
	}
	req.DryRun, _ = strconv.ParseBool(r.PostFormValue("dry_run"))

	resp, err := d.pipeline.Handle(r.Context(), &req, middleware.APIKey(r, d.apiKeyHeader))
	if err != nil {
		log.Warn().Err(err).Str("question", form.Question).Msg("dashboard question failed")
		res := &result{Error: err.Error()}
		if resp != nil {
			res.SQL = resp.GeneratedSQL
			res.Profile = resp.Profile
		}
		d.render(w, http.StatusOK, form, res)
		return
	}
	d.render(w, http.StatusOK, form, fromResponse(resp))
}

func (d *Dashboard) render(w http.ResponseWriter, status int, form formState, res *result) {
	d.write(w, status, page(defaultTitle, d.pipeline.Router().Profiles(), form, res))
}

func (d *Dashboard) write(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := node.Render(w); err != nil {
		log.Warn().Err(err).Msg("render dashboard")
	}
}

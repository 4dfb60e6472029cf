package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydesk/querydesk/internal/agent"
	"github.com/querydesk/querydesk/internal/app"
	"github.com/querydesk/querydesk/internal/config"
	"github.com/querydesk/querydesk/internal/llm"
	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/server"
	"github.com/querydesk/querydesk/internal/service"
)

type fakeProvider struct{}

func (fakeProvider) Name() string { return "fake" }

func (fakeProvider) Generate(context.Context, string) (string, error) {
	return "SELECT COUNT(*) AS `loans` FROM `loan`", nil
}

func newTestApp(t *testing.T) (*app.App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp), sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := service.NewMySQLServiceWithDB(sqlx.NewDb(db, "mysql"), "sales", service.MySQLConfig{})

	cfg := &config.Config{
		APIPrefix:          "/api/v1",
		APIKeyHeader:       "X-API-Key",
		APIKeys:            []string{"test-key"},
		EnableAuth:         true,
		RateLimitPerMinute: 100,
		Environment:        "development",
	}
	router := service.NewProfileRouter(service.DefaultProfiles(nil))
	pipeline := agent.NewReportHandler(
		llm.NewTranslator(fakeProvider{}),
		schema.NewStatic(),
		svc,
		router,
		security.NewPIIDetector(nil),
		security.NewPromptValidator(0),
		security.NewSQLValidator(),
		security.NewDataMasker(nil),
		security.NewAuditLogger(false),
	)
	return &app.App{
		Config:    cfg,
		DB:        svc,
		Describer: schema.NewStatic(),
		Router:    router,
		Pipeline:  pipeline,
	}, mock
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPublicRoutes(t *testing.T) {
	a, mock := newTestApp(t)
	h := server.Routes(a)

	mock.ExpectPing()
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/ui", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<form")

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "querydesk_http_requests_total")
}

func TestAPIRequiresKey(t *testing.T) {
	a, _ := newTestApp(t)
	h := server.Routes(a)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"how many loans"}`))
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	req.Header.Set("X-API-Key", "wrong")
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil)
	req.Header.Set("X-API-Key", "test-key")
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
}

func TestDashboardPostAuthenticatesByFormField(t *testing.T) {
	a, mock := newTestApp(t)
	h := server.Routes(a)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"loans"}).AddRow(int64(12)))
	mock.ExpectRollback()

	form := url.Values{"question": {"how many loans"}, "api_key": {"test-key"}}
	req := httptest.NewRequest(http.MethodPost, "/ui/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(h, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), ">12<")
	require.NoError(t, mock.ExpectationsWereMet())

	form = url.Values{"question": {"how many loans"}}
	req = httptest.NewRequest(http.MethodPost, "/ui/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
}

func TestOptionalFeaturesReport503(t *testing.T) {
	a, _ := newTestApp(t)
	h := server.Routes(a)

	for _, path := range []string{"/api/v1/ask/email", "/api/v1/agent", "/api/v1/reports/target-achievement"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		req.Header.Set("X-API-Key", "test-key")
		assert.Equal(t, http.StatusServiceUnavailable, serve(h, req).Code, path)
	}
}

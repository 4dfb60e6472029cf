package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/querydesk/querydesk/internal/service"
)

func TestMySQLTargets(t *testing.T) {
	svc, mock := newService(t, service.MySQLConfig{})

	mock.ExpectQuery("FROM `target`").
		WillReturnRows(sqlmock.NewRows([]string{"spoc_name", "target"}).
			AddRow("Asha ", 4.5).
			AddRow("Ravi", 3.0).
			AddRow("", 9.0))

	targets, err := service.NewMySQLTargets(svc.DB()).Targets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Asha": 4.5, "Ravi": 3}, targets)
	assertSQLMock(t, mock)
}

func TestParseTargetRows(t *testing.T) {
	tests := []struct {
		name   string
		values [][]interface{}
		want   map[string]float64
	}{
		{
			name:   "header in any order",
			values: [][]interface{}{{"Target", "Region", "SPOC Name"}, {"2.5", "North", "Asha"}, {"1,000", "South", "Ravi"}},
			want:   map[string]float64{"Asha": 2.5, "Ravi": 1000},
		},
		{
			name:   "no header",
			values: [][]interface{}{{"Asha", "2"}, {"Kiran"}, {"", "7"}},
			want:   map[string]float64{"Asha": 2, "Kiran": 0},
		},
		{
			name:   "empty",
			values: nil,
			want:   map[string]float64{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ParseTargetRows(tt.values))
		})
	}
}

func TestSheetsTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-1/values/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Target!A1:B3","majorDimension":"ROWS","values":[["spoc_name","target"],["Asha","4"],["Ravi","2.25"]]}`))
	}))
	defer srv.Close()

	src, err := service.NewSheetsTargets(context.Background(), "sheet-1", "", "",
		option.WithEndpoint(srv.URL), option.WithoutAuthentication())
	require.NoError(t, err)

	targets, err := src.Targets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Asha": 4, "Ravi": 2.25}, targets)
}

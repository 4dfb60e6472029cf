package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/querydesk/querydesk/internal/security"
	"github.com/querydesk/querydesk/internal/service"
)

// SampleRowsTool returns a few rows of a table, masked
func SampleRowsTool(db *service.MySQLService, masker *security.DataMasker) Tool {
	return Tool{
		Name:        "sample_rows",
		Description: "Get sample rows from a table. Use this to check join key values and value formats before writing SQL.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "The table name",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of rows (default 5, max 100)",
				},
			},
			"required": []string{"table_name"},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			name := stringInput(input, "table_name")
			if name == "" {
				return "", fmt.Errorf("table_name is required")
			}

			result, err := db.SampleRows(ctx, name, intInput(input, "limit", 5))
			if err != nil {
				return "", fmt.Errorf("sample rows: %w", err)
			}
			return encodeResult(result, masker)
		},
	}
}

// ExecuteSQLTool validates and runs a read-only query
func ExecuteSQLTool(db *service.MySQLService, validator *security.SQLValidator, masker *security.DataMasker) Tool {
	return Tool{
		Name:        ExecuteSQLName,
		Description: "Execute one MySQL SELECT query and return the results. Only a single read-only SELECT statement is allowed.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sql": map[string]interface{}{
					"type":        "string",
					"description": "The SQL SELECT query to execute",
				},
			},
			"required": []string{"sql"},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			sql := stringInput(input, "sql")
			if sql == "" {
				return "", fmt.Errorf("sql is required")
			}
			if err := validator.Check(sql); err != nil {
				return "", err
			}

			result, err := db.Execute(ctx, sql)
			if err != nil {
				return "", fmt.Errorf("execute query: %w", err)
			}
			return encodeResult(result, masker)
		},
	}
}

func encodeResult(result *service.QueryResult, masker *security.DataMasker) (string, error) {
	table, _ := masker.MaskTable(result.Table)
	rows := table.Rows
	truncated := result.Truncated
	if len(rows) > maxToolRows {
		rows = rows[:maxToolRows]
		truncated = true
	}

	out := map[string]interface{}{
		"row_count": len(table.Rows),
		"columns":   table.Columns,
		"rows":      rows,
		"truncated": truncated,
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

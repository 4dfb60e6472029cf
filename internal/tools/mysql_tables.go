package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/querydesk/querydesk/internal/schema"
	"github.com/querydesk/querydesk/internal/service"
)

// ListTablesTool lists tables in the configured database
func ListTablesTool(db *service.MySQLService) Tool {
	return Tool{
		Name:        "list_tables",
		Description: "List all tables in the MySQL sales database with approximate row counts.",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			tables, err := db.ListTables(ctx)
			if err != nil {
				return "", fmt.Errorf("list tables: %w", err)
			}

			var sb strings.Builder
			sb.WriteString("Tables:\n")
			for _, t := range tables {
				fmt.Fprintf(&sb, "  - %s (type: %s, rows: ~%d)\n", t.Name, t.Type, t.NumRows)
			}
			return sb.String(), nil
		},
	}
}

// GetTableSchemaTool returns column names and types for one table
func GetTableSchemaTool(d schema.Describer) Tool {
	return Tool{
		Name:        "get_table_schema",
		Description: "Get the columns and MySQL types of a table. Use this before writing SQL to understand the table structure.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"table_name": map[string]interface{}{
					"type":        "string",
					"description": "The table name, e.g. loan",
				},
			},
			"required": []string{"table_name"},
		},
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			name := stringInput(input, "table_name")
			if name == "" {
				return "", fmt.Errorf("table_name is required")
			}

			desc, err := d.Describe(ctx)
			if err != nil {
				return "", fmt.Errorf("describe schema: %w", err)
			}
			t, ok := desc.Table(name)
			if !ok {
				return "", fmt.Errorf("table %q not found", name)
			}
			return t.Render(), nil
		},
	}
}

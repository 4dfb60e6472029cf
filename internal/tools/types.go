// Package tools defines the Tool type and the MySQL tools the SQL agent can
// call.
package tools

import "context"

// Tool represents a callable function the LLM can invoke
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input map[string]interface{}) (string, error)
}

// ExecuteSQLName is the tool whose last input the agent reports as its SQL.
const ExecuteSQLName = "execute_sql"

// maxToolRows bounds how many rows a tool result carries back to the model.
const maxToolRows = 50

func stringInput(input map[string]interface{}, key string) string {
	s, _ := input[key].(string)
	return s
}

func intInput(input map[string]interface{}, key string, def int) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

// Package schema describes the tables and columns a generated query may use.
package schema

import (
	"context"
	"strings"
)

// Column is one column of a table with its database type as declared.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table is a table and its columns in ordinal order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Description is the ordered set of tables shown to the model.
type Description struct {
	Tables []Table `json:"tables"`
}

// Describer produces a schema description.
type Describer interface {
	Describe(ctx context.Context) (Description, error)
}

// Empty reports whether the description lists no tables.
func (d Description) Empty() bool {
	return len(d.Tables) == 0
}

// Table returns the named table, matched case-insensitively.
func (d Description) Table(name string) (Table, bool) {
	for _, t := range d.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}

// Render formats the description for a prompt:
//
//	Tables:
//	- `loan`(`case_id` int, `loan_amount` double)
func (d Description) Render() string {
	var sb strings.Builder
	sb.WriteString("Tables:\n")
	for _, t := range d.Tables {
		sb.WriteString(t.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Render formats a single table line without the leading list marker.
func (t Table) Render() string {
	var sb strings.Builder
	sb.WriteString("- `")
	sb.WriteString(t.Name)
	sb.WriteString("`(")
	for i, c := range t.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("`" + c.Name + "` " + c.Type)
	}
	sb.WriteString(")")
	return sb.String()
}

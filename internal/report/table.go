// Package report holds the tabular result model and the shaping rules applied
// before a result reaches a sink.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is a relational result: named columns and equal-length rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Index returns the position of col, matched case-insensitively, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, col) {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present.
func (t Table) Has(cols ...string) bool {
	for _, c := range cols {
		if t.Index(c) < 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the column list and row slices.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// Maps returns the rows as column-keyed maps, the shape the JSON API and the
// data masker work with.
func (t Table) Maps() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(row) {
				m[c] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

// FromMaps rebuilds a table from column-keyed rows using the given column order.
func FromMaps(columns []string, rows []map[string]any) Table {
	t := Table{Columns: append([]string(nil), columns...), Rows: make([][]any, len(rows))}
	for i, m := range rows {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = m[c]
		}
		t.Rows[i] = row
	}
	return t
}

// FormatCell renders a cell for HTML and text sinks.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case []byte:
		return string(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}

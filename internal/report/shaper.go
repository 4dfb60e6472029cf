package report

import (
	"sort"
	"strings"
)

// GrandTotalLabel marks the synthesized total row.
const GrandTotalLabel = "Grand Total"

// Names reported in Shaped.Applied.
const (
	StepDropStale  = "drop_stale_totals"
	StepConvert    = "convert_crores"
	StepGroup      = "group"
	StepPivot      = "pivot"
	StepTargets    = "target_merge"
	StepGrandTotal = "grand_total"
)

// ConvertRule divides the first present candidate column by CroreScale.
type ConvertRule struct {
	Candidates []string `json:"candidates"`
	As         string   `json:"as,omitempty"`
}

// GroupRule collapses rows by Key, summing Sum columns and keeping the first
// value of First columns.
type GroupRule struct {
	Key   string   `json:"key"`
	Sum   []string `json:"sum"`
	First []string `json:"first,omitempty"`
}

// PivotRule cross-tabulates RowKey against ColumnKey, summing Value.
// When Categories is set it fixes the output columns and their order.
type PivotRule struct {
	RowKey     string   `json:"row_key"`
	ColumnKey  string   `json:"column_key"`
	Value      string   `json:"value"`
	Categories []string `json:"categories,omitempty"`
	RowTotal   bool     `json:"row_total"`
}

// TargetRule outer-joins a category → target lookup with the per-category sum
// of the Achievement column.
type TargetRule struct {
	Key          string             `json:"key"`
	Achievement  string             `json:"achievement"`
	TargetColumn string             `json:"target_column,omitempty"`
	Targets      map[string]float64 `json:"-"`
}

// GrandTotalRule appends the sentinel row. Label and Columns are optional;
// defaults are the first non-numeric column and every measure column.
type GrandTotalRule struct {
	Label   string   `json:"label,omitempty"`
	Columns []string `json:"columns,omitempty"`
}

// Rules is a shaping rule set. Nil rules are disabled.
type Rules struct {
	Convert    *ConvertRule    `json:"convert,omitempty"`
	Group      *GroupRule      `json:"group,omitempty"`
	Pivot      *PivotRule      `json:"pivot,omitempty"`
	Targets    *TargetRule     `json:"targets,omitempty"`
	GrandTotal *GrandTotalRule `json:"grand_total,omitempty"`
}

// Shaped is a table after shaping, with the steps that actually fired.
type Shaped struct {
	Table   Table    `json:"table"`
	Applied []string `json:"applied"`
}

// RowTotalColumn names the per-row sum column added by a pivot.
const RowTotalColumn = "Total"

// Shape applies r to t. A step whose columns are missing is skipped, so a
// table that satisfies no rule comes back equal to the input. t is never
// modified.
func Shape(t Table, r Rules) Shaped {
	out := Shaped{Table: t.Clone(), Applied: []string{}}

	apply := func(name string, next Table, ok bool) {
		if ok {
			out.Table = next
			out.Applied = append(out.Applied, name)
		}
	}

	if r.GrandTotal != nil {
		next, ok := dropSentinels(out.Table)
		apply(StepDropStale, next, ok)
	}
	if r.Convert != nil {
		next, ok := convert(out.Table, *r.Convert)
		apply(StepConvert, next, ok)
	}
	if r.Group != nil {
		next, ok := group(out.Table, *r.Group)
		apply(StepGroup, next, ok)
	}
	if r.Pivot != nil {
		next, ok := pivot(out.Table, *r.Pivot)
		apply(StepPivot, next, ok)
	}
	if r.Targets != nil {
		next, ok := mergeTargets(out.Table, *r.Targets)
		apply(StepTargets, next, ok)
	}
	if r.GrandTotal != nil {
		next, ok := grandTotal(out.Table, *r.GrandTotal)
		apply(StepGrandTotal, next, ok)
	}
	return out
}

func dropSentinels(t Table) (Table, bool) {
	label := labelColumn(t)
	if label < 0 {
		return t, false
	}
	kept := make([][]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if s, ok := row[label].(string); ok && s == GrandTotalLabel {
			continue
		}
		kept = append(kept, row)
	}
	if len(kept) == len(t.Rows) {
		return t, false
	}
	return Table{Columns: t.Columns, Rows: kept}, true
}

func convert(t Table, r ConvertRule) (Table, bool) {
	idx := -1
	for _, c := range r.Candidates {
		if idx = t.Index(c); idx >= 0 {
			break
		}
	}
	if idx < 0 {
		return t, false
	}
	out := t.Clone()
	for _, row := range out.Rows {
		row[idx] = ToCrores(row[idx])
	}
	if r.As != "" {
		if other := out.Index(r.As); other < 0 || other == idx {
			out.Columns[idx] = r.As
		}
	}
	return out, true
}

func group(t Table, r GroupRule) (Table, bool) {
	key := t.Index(r.Key)
	if key < 0 {
		return t, false
	}
	sumSet := indexSet(t, r.Sum)
	firstSet := indexSet(t, r.First)
	if len(sumSet) == 0 {
		return t, false
	}

	// Output keeps the key first, then the kept columns in their input order.
	cols := []int{key}
	for i := range t.Columns {
		if i == key {
			continue
		}
		if sumSet[i] || firstSet[i] {
			cols = append(cols, i)
		}
	}

	var order []string
	buckets := map[string][]any{}
	for _, src := range t.Rows {
		k := FormatCell(src[key])
		b, ok := buckets[k]
		if !ok {
			b = make([]any, len(cols))
			for j, c := range cols {
				if sumSet[c] {
					b[j] = 0.0
				} else {
					b[j] = src[c]
				}
			}
			buckets[k] = b
			order = append(order, k)
		}
		for j, c := range cols {
			if sumSet[c] {
				n, _ := Number(src[c])
				b[j] = b[j].(float64) + n
			}
		}
	}

	sort.Strings(order)

	out := Table{Columns: make([]string, len(cols)), Rows: make([][]any, 0, len(order))}
	for j, c := range cols {
		out.Columns[j] = t.Columns[c]
	}
	for _, k := range order {
		row := buckets[k]
		for j, c := range cols {
			if sumSet[c] {
				row[j] = Round2(row[j].(float64))
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, true
}

func pivot(t Table, r PivotRule) (Table, bool) {
	rowIdx, colIdx, valIdx := t.Index(r.RowKey), t.Index(r.ColumnKey), t.Index(r.Value)
	if rowIdx < 0 || colIdx < 0 || valIdx < 0 {
		return t, false
	}

	categories := r.Categories
	if len(categories) == 0 {
		seen := map[string]bool{}
		for _, row := range t.Rows {
			c := FormatCell(row[colIdx])
			if !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
		sort.Strings(categories)
	}
	catPos := make(map[string]int, len(categories))
	for i, c := range categories {
		catPos[c] = i
	}

	cells := map[string][]float64{}
	labels := map[string]any{}
	var keys []string
	for _, row := range t.Rows {
		k := FormatCell(row[rowIdx])
		if _, ok := cells[k]; !ok {
			cells[k] = make([]float64, len(categories))
			labels[k] = row[rowIdx]
			keys = append(keys, k)
		}
		pos, ok := catPos[FormatCell(row[colIdx])]
		if !ok {
			continue
		}
		n, _ := Number(row[valIdx])
		cells[k][pos] += n
	}
	sort.Strings(keys)

	out := Table{Columns: append([]string{t.Columns[rowIdx]}, categories...)}
	if r.RowTotal {
		out.Columns = append(out.Columns, RowTotalColumn)
	}
	for _, k := range keys {
		row := make([]any, 0, len(out.Columns))
		row = append(row, labels[k])
		var total float64
		for _, v := range cells[k] {
			row = append(row, Round2(v))
			total += v
		}
		if r.RowTotal {
			row = append(row, Round2(total))
		}
		out.Rows = append(out.Rows, row)
	}
	return out, true
}

func mergeTargets(t Table, r TargetRule) (Table, bool) {
	key, ach := t.Index(r.Key), t.Index(r.Achievement)
	if key < 0 || ach < 0 || r.Targets == nil {
		return t, false
	}
	targetCol := r.TargetColumn
	if targetCol == "" {
		targetCol = "target"
	}

	achieved := map[string]float64{}
	for _, row := range t.Rows {
		n, _ := Number(row[ach])
		achieved[strings.TrimSpace(FormatCell(row[key]))] += n
	}

	targets := make(map[string]float64, len(r.Targets))
	for k, v := range r.Targets {
		targets[strings.TrimSpace(k)] += v
	}

	keys := make([]string, 0, len(achieved)+len(targets))
	for k := range achieved {
		keys = append(keys, k)
	}
	for k := range targets {
		if _, ok := achieved[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := Table{Columns: []string{t.Columns[key], targetCol, t.Columns[ach]}}
	for _, k := range keys {
		out.Rows = append(out.Rows, []any{k, Round2(targets[k]), Round2(achieved[k])})
	}
	return out, true
}

func grandTotal(t Table, r GrandTotalRule) (Table, bool) {
	var label int
	if r.Label != "" {
		label = t.Index(r.Label)
	} else {
		label = labelColumn(t)
	}
	if label < 0 {
		return t, false
	}

	var cols []int
	if len(r.Columns) > 0 {
		for _, c := range r.Columns {
			if i := t.Index(c); i >= 0 && i != label {
				cols = append(cols, i)
			}
		}
	} else {
		for i, c := range t.Columns {
			if i != label && isNumericColumn(t, i) && !isIdentifier(c) {
				cols = append(cols, i)
			}
		}
	}
	if len(cols) == 0 {
		return t, false
	}

	total := make([]any, len(t.Columns))
	total[label] = GrandTotalLabel
	for _, c := range cols {
		var sum float64
		for _, row := range t.Rows {
			n, _ := Number(row[c])
			sum += n
		}
		total[c] = Round2(sum)
	}

	out := t.Clone()
	out.Rows = append(out.Rows, total)
	return out, true
}

// labelColumn is the first column that is not numeric.
func labelColumn(t Table) int {
	for i := range t.Columns {
		if !isNumericColumn(t, i) {
			return i
		}
	}
	return -1
}

// isNumericColumn needs at least one non-null value, and every non-null
// value must be a Go number. Digit strings such as phone numbers are text.
func isNumericColumn(t Table, i int) bool {
	seen := false
	for _, row := range t.Rows {
		if i >= len(row) || row[i] == nil {
			continue
		}
		if !isNumber(row[i]) {
			return false
		}
		seen = true
	}
	return seen
}

func isNumber(v any) bool {
	switch v.(type) {
	case string, []byte:
		return false
	}
	_, ok := Number(v)
	return ok
}

func isIdentifier(col string) bool {
	c := strings.ToLower(col)
	return c == "id" || strings.HasSuffix(c, "_id")
}

func indexSet(t Table, cols []string) map[int]bool {
	set := map[int]bool{}
	for _, c := range cols {
		if i := t.Index(c); i >= 0 {
			set[i] = true
		}
	}
	return set
}

package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydesk/querydesk/internal/report"
)

// ─── Unit conversion ──────────────────────────────────────────────────────────

func TestToCrores(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{int64(10_000_000), 1.00},
		{nil, 0},
		{"not a number", 0},
		{float64(12_345_678), 1.23},
		{"25000000", 2.50},
		{[]byte("5500000"), 0.55},
		{int64(0), 0},
		{float64(-10_000_000), -1.00},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, report.ToCrores(tt.in), "ToCrores(%v)", tt.in)
	}
}

func TestToCroresMonotonicAndRounded(t *testing.T) {
	prev := report.ToCrores(int64(0))
	for amount := int64(0); amount <= 50_000_000; amount += 1_234_567 {
		got := report.ToCrores(amount)
		assert.GreaterOrEqual(t, got, prev)
		assert.Equal(t, report.Round2(got), got, "value %v is not rounded to 2 decimals", got)
		prev = got
	}
}

// ─── Grand total ──────────────────────────────────────────────────────────────

func TestGrandTotalRow(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc", "amount"},
		Rows: [][]any{
			{"Asha", 1.25},
			{"Ravi", 2.5},
			{"Meena", nil},
		},
	}
	out := report.Shape(in, report.Rules{GrandTotal: &report.GrandTotalRule{}})

	require.Len(t, out.Table.Rows, 4)
	assert.Equal(t, []string{report.StepGrandTotal}, out.Applied)

	last := out.Table.Rows[3]
	assert.Equal(t, report.GrandTotalLabel, last[0])
	assert.Equal(t, 3.75, last[1])

	sentinels := 0
	for _, row := range out.Table.Rows {
		if row[0] == report.GrandTotalLabel {
			sentinels++
		}
	}
	assert.Equal(t, 1, sentinels)
}

func TestGrandTotalReplacesStaleSentinel(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc_name", "loanamount"},
		Rows: [][]any{
			{"Asha", 1.0},
			{report.GrandTotalLabel, 99.0},
			{"Ravi", 2.0},
		},
	}
	out := report.Shape(in, report.Rules{GrandTotal: &report.GrandTotalRule{}})

	require.Len(t, out.Table.Rows, 3)
	assert.Equal(t, []any{report.GrandTotalLabel, 3.0}, out.Table.Rows[2])
	assert.Equal(t, []string{report.StepDropStale, report.StepGrandTotal}, out.Applied)
}

func TestGrandTotalSkipsIdentifierColumns(t *testing.T) {
	in := report.Table{
		Columns: []string{"name", "manager_id", "target"},
		Rows: [][]any{
			{"A", int64(1), int64(10)},
			{"B", int64(2), int64(20)},
		},
	}
	out := report.Shape(in, report.Rules{GrandTotal: &report.GrandTotalRule{}})

	require.Len(t, out.Table.Rows, 3)
	assert.Equal(t, []any{report.GrandTotalLabel, nil, 30.0}, out.Table.Rows[2])
}

// ─── Pivot ────────────────────────────────────────────────────────────────────

func TestPivotFixedCategories(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc_name", "classification", "loanamount"},
		Rows: [][]any{
			{"Ravi", "A", 1.0},
			{"Asha", "B", 2.0},
			{"Ravi", "A", 0.5},
			{"Ravi", "Z", 7.0}, // not declared, dropped
			{"Kiran", "Z", 3.0},
		},
	}
	rule := &report.PivotRule{
		RowKey:     "spoc_name",
		ColumnKey:  "classification",
		Value:      "loanamount",
		Categories: []string{"A", "B", "C", "D"},
		RowTotal:   true,
	}
	out := report.Shape(in, report.Rules{Pivot: rule})

	assert.Equal(t, []string{"spoc_name", "A", "B", "C", "D", report.RowTotalColumn}, out.Table.Columns)
	require.Len(t, out.Table.Rows, 3)
	assert.Equal(t, []any{"Asha", 0.0, 2.0, 0.0, 0.0, 2.0}, out.Table.Rows[0])
	assert.Equal(t, []any{"Kiran", 0.0, 0.0, 0.0, 0.0, 0.0}, out.Table.Rows[1])
	assert.Equal(t, []any{"Ravi", 1.5, 0.0, 0.0, 0.0, 1.5}, out.Table.Rows[2])
}

func TestPivotDiscoveredCategories(t *testing.T) {
	in := report.Table{
		Columns: []string{"region", "classification", "nb"},
		Rows: [][]any{
			{"North", "Retail", int64(2)},
			{"South", "Corporate", int64(5)},
			{"North", "Corporate", int64(1)},
		},
	}
	out := report.Shape(in, report.Rules{
		Pivot:      &report.PivotRule{RowKey: "region", ColumnKey: "classification", Value: "nb"},
		GrandTotal: &report.GrandTotalRule{},
	})

	assert.Equal(t, []string{"region", "Corporate", "Retail"}, out.Table.Columns)
	require.Len(t, out.Table.Rows, 3)
	assert.Equal(t, []any{"North", 1.0, 2.0}, out.Table.Rows[0])
	assert.Equal(t, []any{"South", 5.0, 0.0}, out.Table.Rows[1])
	assert.Equal(t, []any{report.GrandTotalLabel, 6.0, 2.0}, out.Table.Rows[2])
}

// ─── Grouping and targets ─────────────────────────────────────────────────────

func TestGroupBySpocSortsKeysAndKeepsFirstTarget(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc_name", "Target", "loan_amount"},
		Rows: [][]any{
			{"Ravi", 5.0, int64(20_000_000)},
			{"Asha", 3.0, int64(10_000_000)},
			{"Ravi", 5.0, int64(5_000_000)},
		},
	}
	out := report.Shape(in, report.Rules{
		Convert:    &report.ConvertRule{Candidates: []string{"loanamount", "loan_amount"}, As: "loanamount"},
		Group:      &report.GroupRule{Key: "spoc_name", Sum: []string{"loanamount"}, First: []string{"Target"}},
		GrandTotal: &report.GrandTotalRule{},
	})

	assert.Equal(t, []string{report.StepConvert, report.StepGroup, report.StepGrandTotal}, out.Applied)
	assert.Equal(t, []string{"spoc_name", "Target", "loanamount"}, out.Table.Columns)
	assert.Equal(t, [][]any{
		{"Asha", 3.0, 1.0},
		{"Ravi", 5.0, 2.5},
		{report.GrandTotalLabel, 8.0, 3.5},
	}, out.Table.Rows)
}

func TestTargetMergeOuterJoin(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc", "loanamount"},
		Rows: [][]any{
			{"Ravi", 1.5},
			{"Asha", 2.0},
			{"Ravi", 0.5},
		},
	}
	out := report.Shape(in, report.Rules{
		Targets: &report.TargetRule{
			Key:         "spoc",
			Achievement: "loanamount",
			Targets:     map[string]float64{"Ravi": 4, "Kiran": 3},
		},
		GrandTotal: &report.GrandTotalRule{},
	})

	assert.Equal(t, []string{"spoc", "target", "loanamount"}, out.Table.Columns)
	assert.Equal(t, [][]any{
		{"Asha", 0.0, 2.0},
		{"Kiran", 3.0, 0.0},
		{"Ravi", 4.0, 2.0},
		{report.GrandTotalLabel, 7.0, 4.0},
	}, out.Table.Rows)
}

func TestGrandTotalIgnoresDigitStrings(t *testing.T) {
	in := report.Table{
		Columns: []string{"name", "contact", "loanamount"},
		Rows: [][]any{
			{"Asha", "9876543210", 2.5},
			{"Ravi", "9123456789", 1.0},
		},
	}
	out := report.Shape(in, report.Rules{GrandTotal: &report.GrandTotalRule{}})

	require.Len(t, out.Table.Rows, 3)
	assert.Equal(t, []any{report.GrandTotalLabel, nil, 3.5}, out.Table.Rows[2])
}

func TestGrandTotalOnEmptyTableWithNamedColumns(t *testing.T) {
	in := report.Table{Columns: []string{"spoc", "target", "loanamount"}, Rows: [][]any{}}
	out := report.Shape(in, report.Rules{
		GrandTotal: &report.GrandTotalRule{Label: "spoc", Columns: []string{"target", "loanamount"}},
	})

	assert.Equal(t, [][]any{{report.GrandTotalLabel, 0.0, 0.0}}, out.Table.Rows)

	bare := report.Shape(in, report.Rules{GrandTotal: &report.GrandTotalRule{}})
	assert.Empty(t, bare.Table.Rows)
}

// ─── Fallback ─────────────────────────────────────────────────────────────────

func TestShapeFallbackReturnsInput(t *testing.T) {
	in := report.Table{
		Columns: []string{"name", "contact"},
		Rows: [][]any{
			{"A", "999"},
			{"B", nil},
		},
	}
	snapshot := in.Clone()
	rules := report.Rules{
		Convert: &report.ConvertRule{Candidates: []string{"loanamount"}},
		Group:   &report.GroupRule{Key: "classification", Sum: []string{"nb"}},
		Pivot:   &report.PivotRule{RowKey: "spoc_name", ColumnKey: "classification", Value: "loanamount"},
		Targets: &report.TargetRule{Key: "spoc", Achievement: "loanamount", Targets: map[string]float64{}},
	}

	out := report.Shape(in, rules)
	assert.Equal(t, in, out.Table)
	assert.Empty(t, out.Applied)
	assert.Equal(t, snapshot, in, "input must not be mutated")
}

func TestShapeDoesNotMutateInput(t *testing.T) {
	in := report.Table{
		Columns: []string{"spoc", "amount"},
		Rows:    [][]any{{"Ravi", int64(10_000_000)}},
	}
	snapshot := in.Clone()
	_ = report.Shape(in, report.Rules{
		Convert:    &report.ConvertRule{Candidates: []string{"amount"}, As: "amount_cr"},
		GrandTotal: &report.GrandTotalRule{},
	})
	assert.Equal(t, snapshot, in)
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", report.FormatCell(nil))
	assert.Equal(t, "1.5", report.FormatCell(1.5))
	assert.Equal(t, "42", report.FormatCell(int64(42)))
	assert.Equal(t, "abc", report.FormatCell([]byte("abc")))
}

package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"$1,234.50", 1234.5, true},
		{"abc", 0, false},
		{42, 42, true},
		{42.5, 42.5, true},
		{int64(-3), -3, true},
		{json.Number("7.25"), 7.25, true},
		{"  €99 ", 99, true},
		{"£1,000,000", 1000000, true},
		{"¥ 500", 500, true},
		{"1e3", 1000, true},
		{"-12.5", -12.5, true},
		{"", 0, false},
		{"$", 0, false},
		{"12%", 0, false},
		{true, 0, false},
		{nil, 0, false},
		{map[string]any{"a": 1}, 0, false},
		{[]any{1.0}, 0, false},
	}
	for _, c := range cases {
		got, ok := Normalize(c.in)
		if ok != c.ok {
			t.Fatalf("Normalize(%#v) ok = %v, want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("Normalize(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizePtr(t *testing.T) {
	if p := NormalizePtr("x"); p != nil {
		t.Fatalf("expected nil, got %v", *p)
	}
	if p := NormalizePtr("$5"); p == nil || *p != 5 {
		t.Fatalf("expected 5, got %v", p)
	}
}

func makeTable(cols []string, rows ...[]any) *table.Table {
	tb := table.New(cols...)
	for _, r := range rows {
		row := table.Row{}
		for i, c := range cols {
			row[c] = r[i]
		}
		tb.Rows = append(tb.Rows, row)
	}
	return tb
}

func TestClassifyHalfNumericIsInclusive(t *testing.T) {
	tb := makeTable([]string{"Name", "Score"},
		[]any{"a", "1"},
		[]any{"b", "n/a"},
		[]any{"c", "3"},
		[]any{"d", "-"},
	)
	c := Classify(tb)
	if c == nil {
		t.Fatalf("expected graphable table")
	}
	if len(c.NumericColumns) != 1 || c.NumericColumns[0] != "Score" {
		t.Fatalf("numeric = %#v", c.NumericColumns)
	}
	if c.LabelColumn != "Name" {
		t.Fatalf("label = %q", c.LabelColumn)
	}
}

func TestClassifyBelowHalfIsNotNumeric(t *testing.T) {
	tb := makeTable([]string{"Name", "Score"},
		[]any{"a", "1"},
		[]any{"b", "n/a"},
		[]any{"c", "x"},
	)
	if c := Classify(tb); c != nil {
		t.Fatalf("expected not graphable, got %#v", c)
	}
	if IsGraphable(tb) {
		t.Fatalf("IsGraphable = true")
	}
}

func TestClassifySingleNumericRow(t *testing.T) {
	tb := makeTable([]string{"K", "V"}, []any{"only", "$10"})
	c := Classify(tb)
	if c == nil || len(c.NumericColumns) != 1 || c.NumericColumns[0] != "V" {
		t.Fatalf("classification = %#v", c)
	}
}

func TestClassifyEmptyTableNeverGraphable(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatalf("nil table graphable")
	}
	if Classify(table.New("A", "B")) != nil {
		t.Fatalf("table without rows graphable")
	}
}

// All columns numeric: the first column doubles as label and data series.
func TestClassifyAllNumericLabelFallback(t *testing.T) {
	tb := makeTable([]string{"Year", "Sales"},
		[]any{2022.0, 10.0},
		[]any{2023.0, 12.0},
	)
	c := Classify(tb)
	if c == nil {
		t.Fatalf("expected graphable")
	}
	if c.LabelColumn != "Year" {
		t.Fatalf("label = %q, want Year", c.LabelColumn)
	}
	if len(c.NumericColumns) != 2 || c.NumericColumns[0] != "Year" {
		t.Fatalf("numeric = %#v", c.NumericColumns)
	}
	if !c.IsNumeric("Year") {
		t.Fatalf("Year should be both label and numeric")
	}
}

func TestLabelColumnPicksFirstNonNumeric(t *testing.T) {
	tb := table.New("Amount", "Region", "Team")
	if got := LabelColumn(tb, []string{"Amount"}); got != "Region" {
		t.Fatalf("label = %q", got)
	}
	if got := LabelColumn(tb, []string{"Amount", "Region", "Team"}); got != "Amount" {
		t.Fatalf("fallback label = %q", got)
	}
}

func TestSummarizeAndMarkdown(t *testing.T) {
	tb := makeTable([]string{"Region", "Revenue", "Note"},
		[]any{"North", "$1,000", "ok"},
		[]any{"South", "$3,000", nil},
		[]any{"North", "2000", "late"},
	)
	tb.Source = "markdown"
	rep := Summarize(tb, DefaultOptions())
	if rep.Rows != 3 || len(rep.Cols) != 3 {
		t.Fatalf("rows/cols = %d/%d", rep.Rows, len(rep.Cols))
	}
	rev := rep.Cols[1]
	if rev.Kind != "numeric" {
		t.Fatalf("revenue kind = %q", rev.Kind)
	}
	if rev.Min != 1000 || rev.Max != 3000 || math.Abs(rev.Mean-2000) > 1e-9 || rev.Sum != 6000 {
		t.Fatalf("revenue stats = %+v", rev)
	}
	if math.Abs(rev.Std-1000) > 1e-9 {
		t.Fatalf("revenue std = %f", rev.Std)
	}
	region := rep.Cols[0]
	if region.Kind != "categorical" || region.TopValues[0].Value != "North" || region.TopValues[0].Count != 2 {
		t.Fatalf("region = %+v", region)
	}
	if rep.Cols[2].Missing != 1 {
		t.Fatalf("note missing = %d", rep.Cols[2].Missing)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[TABLE SUMMARY]",
		"Detected as: markdown",
		"Revenue: numeric",
		"label column: Region",
		"numeric columns: Revenue",
		"| Region | Revenue | Note |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummarizeSkipsNonFiniteValues(t *testing.T) {
	tb := makeTable([]string{"Month", "Sales"},
		[]any{"Jan", "10"},
		[]any{"Feb", "inf"},
		[]any{"Mar", "-Infinity"},
		[]any{"Apr", "NaN"},
		[]any{"May", "$20"},
	)
	rep := Summarize(tb, DefaultOptions())
	sales := rep.Cols[1]
	if sales.Kind != "numeric" || sales.Numeric != 2 {
		t.Fatalf("sales = %+v", sales)
	}
	if sales.Min != 10 || sales.Max != 20 || sales.Sum != 30 || sales.Mean != 15 {
		t.Fatalf("sales stats = %+v", sales)
	}
	if _, err := json.Marshal(rep); err != nil {
		t.Fatalf("marshal report: %v", err)
	}
}

func TestSummarizeNotGraphable(t *testing.T) {
	tb := makeTable([]string{"A"}, []any{"x"}, []any{"y"})
	md := Summarize(tb, Options{}).Markdown()
	if !strings.Contains(md, "not graphable") {
		t.Fatalf("expected not graphable note:\n%s", md)
	}
}

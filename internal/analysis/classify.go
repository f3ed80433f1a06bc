package analysis

import "github.com/KaramelBytes/erpgenie-cli/internal/table"

// Classification identifies which columns of a table can be charted.
type Classification struct {
	// NumericColumns lists numeric columns in declaration order.
	NumericColumns []string `json:"numeric_columns"`
	// LabelColumn is the first non-numeric column, or the first column when
	// every column is numeric. In that case it is also a data series.
	LabelColumn string `json:"label_column"`
}

// Classify returns the numeric and label columns of t, or nil when t is not
// graphable (empty, or no column reaches the numeric threshold).
func Classify(t *table.Table) *Classification {
	if t.Empty() {
		return nil
	}
	numeric := NumericColumns(t)
	if len(numeric) == 0 {
		return nil
	}
	return &Classification{NumericColumns: numeric, LabelColumn: LabelColumn(t, numeric)}
}

// IsGraphable reports whether t has at least one numeric column.
func IsGraphable(t *table.Table) bool {
	return Classify(t) != nil
}

// NumericColumns returns the columns where at least half of the rows
// normalize to a number. The threshold is inclusive.
func NumericColumns(t *table.Table) []string {
	if t.Empty() {
		return nil
	}
	var out []string
	for _, col := range t.Columns {
		if isNumericColumn(t, col) {
			out = append(out, col)
		}
	}
	return out
}

func isNumericColumn(t *table.Table, col string) bool {
	var n int
	for _, r := range t.Rows {
		if _, ok := Normalize(r[col]); ok {
			n++
		}
	}
	return n*2 >= len(t.Rows)
}

// LabelColumn picks the first declared column not in numeric, falling back to
// the first declared column.
func LabelColumn(t *table.Table, numeric []string) string {
	if t == nil || len(t.Columns) == 0 {
		return ""
	}
	set := make(map[string]struct{}, len(numeric))
	for _, c := range numeric {
		set[c] = struct{}{}
	}
	for _, c := range t.Columns {
		if _, ok := set[c]; !ok {
			return c
		}
	}
	return t.Columns[0]
}

// IsNumeric reports whether col is one of the numeric columns.
func (c *Classification) IsNumeric(col string) bool {
	if c == nil {
		return false
	}
	for _, n := range c.NumericColumns {
		if n == col {
			return true
		}
	}
	return false
}

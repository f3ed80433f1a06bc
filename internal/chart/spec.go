// Package chart shapes extracted tables into chart specs and renders them.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/analysis"
	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// Kind names a chart type.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
	KindPie  Kind = "pie"
)

// Kinds lists the supported chart kinds.
var Kinds = []Kind{KindBar, KindLine, KindPie}

// ErrNotGraphable is returned when a table has no numeric column.
var ErrNotGraphable = errors.New("no numeric data available")

// ParseKind validates a user-supplied chart kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart kind %q (want bar, line or pie)", s)
}

// Palette is the qualitative Set2 color cycle used for series and slices.
var Palette = []string{
	"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3",
	"#a6d854", "#ffd92f", "#e5c494", "#b3b3b3",
}

// PaletteColor returns the i-th palette color, cycling.
func PaletteColor(i int) string {
	return Palette[i%len(Palette)]
}

const (
	barTitle  = "Data Visualization"
	lineTitle = "Trend Visualization"
	pieTitle  = "Distribution"
	valueAxis = "Value"
)

// Series is one numeric column. Values align with Spec.Categories; a nil
// entry is a cell that did not normalize.
type Series struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
	Color  string     `json:"color"`
}

// Slice is one pie wedge.
type Slice struct {
	Label string   `json:"label"`
	Value *float64 `json:"value"`
	Color string   `json:"color"`
}

// Spec is a renderer-independent description of a chart.
type Spec struct {
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title"`
	XTitle     string   `json:"x_title,omitempty"`
	YTitle     string   `json:"y_title,omitempty"`
	Categories []any    `json:"categories,omitempty"`
	Series     []Series `json:"series,omitempty"`
	Slices     []Slice  `json:"slices,omitempty"`
}

// CategoryLabels formats the raw category values for display.
func (s *Spec) CategoryLabels() []string {
	out := make([]string, len(s.Categories))
	for i, v := range s.Categories {
		out[i] = table.FormatValue(v)
	}
	return out
}

func mustInputs(t *table.Table, c *analysis.Classification) {
	if t == nil {
		panic("chart: nil table")
	}
	if c == nil {
		panic("chart: nil classification")
	}
}

// ProjectBar builds a grouped bar chart: one series per numeric column.
func ProjectBar(t *table.Table, c *analysis.Classification) *Spec {
	s := projectSeries(t, c)
	s.Kind = KindBar
	s.Title = barTitle
	return s
}

// ProjectLine builds a line chart: one series per numeric column.
func ProjectLine(t *table.Table, c *analysis.Classification) *Spec {
	s := projectSeries(t, c)
	s.Kind = KindLine
	s.Title = lineTitle
	return s
}

// ProjectPie builds a pie chart from the first numeric column.
func ProjectPie(t *table.Table, c *analysis.Classification) *Spec {
	mustInputs(t, c)
	if len(c.NumericColumns) == 0 {
		panic("chart: classification without numeric columns")
	}
	value := c.NumericColumns[0]
	s := &Spec{Kind: KindPie, Title: pieTitle, XTitle: c.LabelColumn}
	for i, row := range t.Rows {
		s.Slices = append(s.Slices, Slice{
			Label: table.FormatValue(row[c.LabelColumn]),
			Value: chartValue(row[value]),
			Color: PaletteColor(i),
		})
	}
	return s
}

func projectSeries(t *table.Table, c *analysis.Classification) *Spec {
	mustInputs(t, c)
	s := &Spec{XTitle: c.LabelColumn, YTitle: valueAxis}
	s.Categories = t.Column(c.LabelColumn)
	for i, col := range c.NumericColumns {
		vals := make([]*float64, len(t.Rows))
		for r, row := range t.Rows {
			vals[r] = chartValue(row[col])
		}
		s.Series = append(s.Series, Series{Name: col, Values: vals, Color: PaletteColor(i)})
	}
	return s
}

// chartValue normalizes a cell for plotting. NaN and infinities become nil
// points so specs stay JSON-encodable.
func chartValue(v any) *float64 {
	p := analysis.NormalizePtr(v)
	if !finite(p) {
		return nil
	}
	return p
}

// Project dispatches on kind. An unknown kind panics; validate with ParseKind.
func Project(kind Kind, t *table.Table, c *analysis.Classification) *Spec {
	switch kind {
	case KindBar:
		return ProjectBar(t, c)
	case KindLine:
		return ProjectLine(t, c)
	case KindPie:
		return ProjectPie(t, c)
	default:
		panic(fmt.Sprintf("chart: unknown kind %q", kind))
	}
}

// Build classifies t and projects it, returning ErrNotGraphable when the
// table has no numeric column.
func Build(kind Kind, t *table.Table) (*Spec, error) {
	c := analysis.Classify(t)
	if c == nil {
		return nil, fmt.Errorf("%s chart: %w", kind, ErrNotGraphable)
	}
	return Project(kind, t, c), nil
}

// NotGraphableMessage is the user-facing notice for a table without numbers.
func NotGraphableMessage(kind Kind) string {
	return fmt.Sprintf("No numeric data available for %s chart.", kind)
}

package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// Options controls summary behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues caps the categorical top list per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for table summaries.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 5}
}

// Report is a markdown-friendly summary of an extracted table.
type Report struct {
	Source         string          `json:"source,omitempty"`
	Rows           int             `json:"rows"`
	Cols           []ColumnSummary `json:"columns"`
	Samples        [][]string      `json:"samples,omitempty"`
	Classification *Classification `json:"classification,omitempty"`
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|categorical|text|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	// Numeric stats over the values that normalize
	Numeric int     `json:"numeric_count,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
	Std     float64 `json:"std,omitempty"`
	Sum     float64 `json:"sum,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty"`
	Unique    int             `json:"unique,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize computes a Report for t. A nil table yields an empty report.
func Summarize(t *table.Table, opt Options) *Report {
	rep := &Report{}
	if t == nil {
		return rep
	}
	rep.Source = t.Source
	rep.Rows = len(t.Rows)
	rep.Classification = Classify(t)
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	topN := opt.TopValues
	if topN <= 0 {
		topN = 5
	}
	for i, r := range t.Rows {
		if i >= sampleRows {
			break
		}
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = table.FormatValue(r[c])
		}
		rep.Samples = append(rep.Samples, rec)
	}

	for _, col := range t.Columns {
		s := ColumnSummary{Name: col}
		// Welford
		var n int
		var mean, m2 float64
		minV, maxV := math.Inf(1), math.Inf(-1)
		cats := map[string]int{}
		for _, r := range t.Rows {
			v := r[col]
			txt := strings.TrimSpace(table.FormatValue(v))
			if v == nil || txt == "" {
				s.Missing++
				continue
			}
			s.NonNull++
			if x, ok := Normalize(v); ok && !math.IsNaN(x) && !math.IsInf(x, 0) {
				n++
				s.Sum += x
				if x < minV {
					minV = x
				}
				if x > maxV {
					maxV = x
				}
				delta := x - mean
				mean += delta / float64(n)
				m2 += delta * (x - mean)
				continue
			}
			cats[txt]++
		}
		s.Numeric = n
		switch {
		case s.NonNull == 0:
			s.Kind = "empty"
		case rep.Classification.IsNumeric(col) && n > 0:
			s.Kind = "numeric"
			s.Min, s.Max, s.Mean = minV, maxV, mean
			if n > 1 {
				s.Std = math.Sqrt(m2 / float64(n-1))
			}
		case len(cats) > 0 && len(cats) < s.NonNull:
			s.Kind = "categorical"
		default:
			s.Kind = "text"
		}
		if s.Kind == "categorical" || s.Kind == "text" {
			tops := make([]CategoryCount, 0, len(cats))
			for k, v := range cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > topN {
				tops = tops[:topN]
			}
			s.TopValues = tops
			s.Unique = len(cats)
		}
		rep.Cols = append(rep.Cols, s)
	}
	return rep
}

// Markdown renders a compact report for terminal output.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[TABLE SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("Detected as: %s\n", r.Source))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case "categorical", "text":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n[CHARTS]\n")
	if r.Classification == nil {
		b.WriteString("- not graphable: no numeric column\n")
	} else {
		b.WriteString(fmt.Sprintf("- label column: %s\n", safeName(r.Classification.LabelColumn)))
		b.WriteString(fmt.Sprintf("- numeric columns: %s\n", strings.Join(r.Classification.NumericColumns, ", ")))
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(c.Name)))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

package console

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// MaxCellWidth caps a rendered cell, in terminal columns.
const MaxCellWidth = 40

// DisplayWidth counts terminal columns; wide and fullwidth runes take two.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	default:
		return 1
	}
}

// Clip shortens s to at most max columns, marking the cut with "…".
func Clip(s string, max int) string {
	if DisplayWidth(s) <= max {
		return s
	}
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := runeWidth(r)
		if used+w > max-1 {
			break
		}
		b.WriteRune(r)
		used += w
	}
	b.WriteString("…")
	return b.String()
}

func pad(s string, n int) string {
	if d := n - DisplayWidth(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

// RenderTable writes t as an aligned text grid with a header rule.
func RenderTable(w io.Writer, t *table.Table) error {
	if t == nil || len(t.Columns) == 0 {
		_, err := fmt.Fprintln(w, "(no table)")
		return err
	}
	recs := t.Records()
	widths := make([]int, len(t.Columns))
	for _, rec := range recs {
		for j, cell := range rec {
			cell = Clip(strings.Join(strings.Fields(cell), " "), MaxCellWidth)
			rec[j] = cell
			if n := DisplayWidth(cell); n > widths[j] {
				widths[j] = n
			}
		}
	}
	line := func(rec []string) error {
		parts := make([]string, len(rec))
		for j, cell := range rec {
			parts[j] = pad(cell, widths[j])
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, " | "), " "))
		return err
	}
	if err := line(recs[0]); err != nil {
		return err
	}
	rule := make([]string, len(widths))
	for j, n := range widths {
		rule[j] = strings.Repeat("-", n)
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "-+-")); err != nil {
		return err
	}
	for _, rec := range recs[1:] {
		if err := line(rec); err != nil {
			return err
		}
	}
	return nil
}

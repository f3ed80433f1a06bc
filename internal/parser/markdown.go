package parser

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// separatorLine matches Markdown header separators such as |---|:---:|.
var separatorLine = regexp.MustCompile(`^[\s|:-]+$`)

// MarkdownStrategy reads the first contiguous pipe table in the text.
// Rows whose cell count differs from the header are dropped, not repaired.
type MarkdownStrategy struct{}

func (MarkdownStrategy) Name() string { return "markdown" }

func (MarkdownStrategy) Extract(text string) (*table.Table, bool) {
	var lines []string
	inTable := false
	for _, line := range splitLines(text) {
		s := strings.TrimSpace(line)
		if strings.Contains(s, "|") {
			inTable = true
			if separatorLine.MatchString(s) {
				continue
			}
			lines = append(lines, s)
			continue
		}
		// A blank line ends the table; other prose lines are skipped.
		if inTable && s == "" {
			break
		}
	}
	if len(lines) < 2 {
		return nil, false
	}
	header := splitCells(lines[0])
	if len(header) == 0 {
		return nil, false
	}
	t := table.New(header...)
	for _, line := range lines[1:] {
		cells := splitCells(line)
		if len(cells) != len(header) {
			continue
		}
		row := make(table.Row, len(header))
		for i, col := range header {
			row[col] = cells[i]
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, false
	}
	return t, true
}

// splitCells splits a table line on pipes and trims each cell. The empty
// piece produced by a leading or trailing pipe is discarded; interior empty
// cells are kept.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

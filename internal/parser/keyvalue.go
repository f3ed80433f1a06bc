package parser

import (
	"regexp"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

const (
	// CategoryColumn and ValueColumn are the fixed key/value table columns.
	CategoryColumn = "Category"
	ValueColumn    = "Value"
)

// keyValueLine matches "Revenue: $500" and "- Units sold: 12". Whitespace
// includes Unicode separators such as the no-break space.
var keyValueLine = regexp.MustCompile(`^[\s\p{Z}-]*([A-Za-z\s\p{Z}]+):[\s\p{Z}]*(.+)$`)

// KeyValueStrategy collects "Label: value" lines anywhere in the text.
// At least two lines must match.
type KeyValueStrategy struct{}

func (KeyValueStrategy) Name() string { return "keyvalue" }

func (KeyValueStrategy) Extract(text string) (*table.Table, bool) {
	t := table.New(CategoryColumn, ValueColumn)
	for _, line := range splitLines(text) {
		m := keyValueLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		t.Rows = append(t.Rows, table.Row{
			CategoryColumn: strings.TrimSpace(m[1]),
			ValueColumn:    strings.TrimSpace(m[2]),
		})
	}
	if len(t.Rows) < 2 {
		return nil, false
	}
	return t, true
}

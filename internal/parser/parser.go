package parser

import (
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
	"github.com/rs/zerolog/log"
)

// Strategy recognizes one textual table format. Extract reports ok=false when
// the text is not in its format; that is a normal miss, not an error.
type Strategy interface {
	Name() string
	Extract(text string) (*table.Table, bool)
}

var registry []Strategy

// Register appends a strategy to the cascade. Call from init only.
func Register(s Strategy) {
	registry = append(registry, s)
}

// Strategies returns the registered strategies in priority order.
func Strategies() []Strategy {
	out := make([]Strategy, len(registry))
	copy(out, registry)
	return out
}

// Extract runs the registered strategies in order and returns the first
// table found, or nil when no strategy recognizes the text.
func Extract(text string) *table.Table {
	return ExtractWith(text, registry...)
}

// ExtractWith runs the given strategies in order with first-success semantics.
func ExtractWith(text string, strategies ...Strategy) *table.Table {
	for _, s := range strategies {
		t, ok := s.Extract(text)
		if !ok || t == nil {
			log.Debug().Str("strategy", s.Name()).Msg("table strategy miss")
			continue
		}
		t.Source = s.Name()
		log.Debug().Str("strategy", s.Name()).Int("rows", len(t.Rows)).Int("cols", len(t.Columns)).Msg("table detected")
		return t
	}
	return nil
}

// splitLines normalizes line endings, trims the text and returns its lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(strings.TrimSpace(text), "\n")
}

func init() {
	// Priority order; key/value must stay last.
	Register(JSONStrategy{})
	Register(MarkdownStrategy{})
	Register(KeyValueStrategy{})
}

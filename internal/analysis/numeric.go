package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// currencyReplacer strips currency symbols and thousands separators.
var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "")

// Normalize coerces a cell value to a number.
// Numbers are returned unchanged. Strings are trimmed, stripped of currency
// symbols ($ € £ ¥) and commas, then parsed as a float. Every other type,
// and every parse failure, reports ok=false.
func Normalize(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		return parseNumeric(x)
	default:
		return 0, false
	}
}

// NormalizePtr is Normalize with a nil result for "not numeric".
func NormalizePtr(v any) *float64 {
	f, ok := Normalize(v)
	if !ok {
		return nil
	}
	return &f
}

func parseNumeric(s string) (float64, bool) {
	raw := currencyReplacer.Replace(strings.TrimSpace(s))
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

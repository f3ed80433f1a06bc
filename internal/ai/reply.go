package ai

import (
	"bytes"
	"encoding/json"
	"strings"
)

// replyKeys are the object fields checked, in order, for the reply text.
var replyKeys = []string{"output", "text", "response"}

// ReplyText turns a webhook body into display text. A JSON object yields
// its first present reply key; strings are used as-is and nested values are
// pretty-printed with two-space indentation in source key order. An object
// without a reply key is returned as compact JSON; a body that is not JSON
// is returned unchanged.
func ReplyText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return string(body)
	}
	if trimmed[0] != '{' {
		return rawText(trimmed)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return string(body)
	}
	for _, k := range replyKeys {
		if v, ok := obj[k]; ok {
			return rawText(v)
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

// rawText renders one JSON value for display.
func rawText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return ""
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err == nil {
			return buf.String()
		}
	case 'n':
		if string(v) == "null" {
			return ""
		}
	}
	return strings.TrimSpace(string(v))
}

package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// JSONStrategy reads the whole text as one JSON document: an array of
// objects, scalars or arrays, or a single object.
type JSONStrategy struct{}

func (JSONStrategy) Name() string { return "json" }

func (JSONStrategy) Extract(text string) (*table.Table, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, false
	}
	// Trailing data after the document is a miss.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	switch x := v.(type) {
	case []any:
		return tableFromArray(x)
	case *object:
		if len(x.keys) == 0 {
			return nil, false
		}
		t := table.New(x.keys...)
		t.Rows = []table.Row{x.row(x.keys)}
		return t, true
	default:
		return nil, false
	}
}

func tableFromArray(arr []any) (*table.Table, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	switch arr[0].(type) {
	case *object:
		var cols []string
		seen := map[string]struct{}{}
		for _, el := range arr {
			obj, ok := el.(*object)
			if !ok {
				return nil, false
			}
			for _, k := range obj.keys {
				if _, dup := seen[k]; !dup {
					seen[k] = struct{}{}
					cols = append(cols, k)
				}
			}
		}
		if len(cols) == 0 {
			return nil, false
		}
		t := table.New(cols...)
		for _, el := range arr {
			t.Rows = append(t.Rows, el.(*object).row(cols))
		}
		return t, true
	case []any:
		width := 0
		for _, el := range arr {
			inner, ok := el.([]any)
			if !ok {
				return nil, false
			}
			if len(inner) > width {
				width = len(inner)
			}
		}
		if width == 0 {
			return nil, false
		}
		cols := make([]string, width)
		for i := range cols {
			cols[i] = strconv.Itoa(i)
		}
		t := table.New(cols...)
		for _, el := range arr {
			inner := el.([]any)
			row := make(table.Row, width)
			for i, c := range cols {
				if i < len(inner) {
					row[c] = plain(inner[i])
				} else {
					row[c] = nil
				}
			}
			t.Rows = append(t.Rows, row)
		}
		return t, true
	default:
		t := table.New("0")
		for _, el := range arr {
			switch el.(type) {
			case *object, []any:
				return nil, false
			}
			t.Rows = append(t.Rows, table.Row{"0": el})
		}
		return t, true
	}
}

// object is a JSON object that remembers key order.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) set(k string, v any) {
	if _, ok := o.vals[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.vals[k] = v
}

// row projects the object onto cols; absent keys hold nil.
func (o *object) row(cols []string) table.Row {
	r := make(table.Row, len(cols))
	for _, c := range cols {
		r[c] = plain(o.vals[c])
	}
	return r
}

// plain converts nested ordered objects into ordinary maps for cell storage.
func plain(v any) any {
	switch x := v.(type) {
	case *object:
		m := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			m[k] = plain(x.vals[k])
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return v
	}
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	d, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		obj := &object{vals: map[string]any{}}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key: unexpected %v", kt)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", d)
	}
}

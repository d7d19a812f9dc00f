// record.go — Untyped persisted shape of a layout.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a layout as stored: a JSON object decoded without a schema.
// Validate turns a Record into a *Layout.
type Record map[string]any

// DecodeRecord parses stored JSON. Numbers are kept as json.Number so integer
// checks are exact.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode layout record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("decode layout record: not an object")
	}
	return rec, nil
}

// Encode serializes the layout in its persisted form.
func (l *Layout) Encode() ([]byte, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return data, nil
}

// Record converts the layout to its untyped persisted shape.
func (l *Layout) Record() (Record, error) {
	data, err := l.Encode()
	if err != nil {
		return nil, err
	}
	return DecodeRecord(data)
}

// Clone deep-copies the record, including nested objects and arrays.
func (r Record) Clone() Record {
	return cloneValue(map[string]any(r)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return Record(cloneValue(map[string]any(t)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

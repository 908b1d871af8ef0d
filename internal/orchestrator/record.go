package orchestrator

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Record is the flat key/value description of a subject returned by a
// DataFetcher: prices, ratios, growth metrics and free text.
type Record map[string]any

// Clone returns a copy of r that shares nothing mutable with it. Nested
// maps and slices, as decoded from JSON or YAML, are copied recursively.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case Record:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Float returns the numeric value stored under key, or 0 when the key is
// missing or not numeric.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// String returns the value stored under key formatted as text, or "" when
// the key is missing.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}

// Format renders the record as "key: value" lines in key order so that
// identical records always produce identical prompts.
func (r Record) Format() string {
	var b strings.Builder
	for _, k := range r.Keys() {
		fmt.Fprintf(&b, "%s: %v\n", k, r[k])
	}
	return b.String()
}

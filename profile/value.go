// Package profile models heterogeneous user-profile attributes as a small
// tagged value with one formatting rule per tag.
package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Value.
type Kind int

const (
	Scalar Kind = iota
	List
	Map
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case Map:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a scalar, a list of scalars or a keyed map of scalars.
type Value struct {
	Kind   Kind
	Scalar string
	List   []string
	Map    map[string]string
}

func NewScalar(s string) Value { return Value{Kind: Scalar, Scalar: s} }

func NewList(items ...string) Value { return Value{Kind: List, List: items} }

func NewMap(m map[string]string) Value { return Value{Kind: Map, Map: m} }

// Format renders the value for display:
// scalar verbatim, list joined by ", ", map as sorted "key: value" pairs
// joined by "; ".
func (v Value) Format() string {
	switch v.Kind {
	case List:
		return strings.Join(v.List, ", ")
	case Map:
		keys := v.Keys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+v.Map[k])
		}
		return strings.Join(parts, "; ")
	default:
		return v.Scalar
	}
}

// Keys returns the map keys in sorted order; nil for other kinds.
func (v Value) Keys() []string {
	if v.Kind != Map {
		return nil
	}
	return SortedKeys(v.Map)
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether the value has nothing to display.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case List:
		return len(v.List) == 0
	case Map:
		return len(v.Map) == 0
	default:
		return v.Scalar == ""
	}
}

func (v Value) String() string {
	return v.Format()
}

// UnmarshalJSON decodes strings, numbers, booleans and null as Scalar,
// arrays as List and objects as Map. Nested values are flattened to their
// compact JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("profile: empty value")
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("profile: decode list: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, r := range raw {
			items = append(items, scalarText(r))
		}
		*v = NewList(items...)
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("profile: decode map: %w", err)
		}
		m := make(map[string]string, len(raw))
		for k, r := range raw {
			m[k] = scalarText(r)
		}
		*v = NewMap(m)
	default:
		if !json.Valid(data) {
			return fmt.Errorf("profile: invalid scalar %q", data)
		}
		*v = NewScalar(scalarText(data))
	}
	return nil
}

// MarshalJSON writes the value back in its natural JSON shape.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case List:
		items := v.List
		if items == nil {
			items = []string{}
		}
		return json.Marshal(items)
	case Map:
		m := v.Map
		if m == nil {
			m = map[string]string{}
		}
		return json.Marshal(m)
	default:
		return json.Marshal(v.Scalar)
	}
}

func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}

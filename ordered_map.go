package godto

import (
	"sort"

	"github.com/reoring/godto/format"
)

// Map is an insertion-ordered string-keyed map produced by the output
// pipeline. It marshals to JSON and YAML in key order.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map { return &Map{vals: map[string]any{}} }

// Set stores v under k. An existing key keeps its position.
func (m *Map) Set(k string, v any) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	v, ok := m.vals[k]
	return v, ok
}

// Delete removes k.
func (m *Map) Delete(k string) {
	if _, ok := m.vals[k]; !ok {
		return
	}
	delete(m.vals, k)
	for i, key := range m.keys {
		if key == k {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in order.
func (m *Map) Keys() []string { return append([]string(nil), m.keys...) }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// ToPlain converts the map and every nested Map into map[string]any.
func (m *Map) ToPlain() map[string]any {
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plain(m.vals[k])
	}
	return out
}

func plain(v any) any {
	switch t := v.(type) {
	case *Map:
		return t.ToPlain()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = plain(t[i])
		}
		return out
	}
	return v
}

// MarshalJSON renders the map as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) { return format.MarshalOrdered(m) }

// MarshalYAML renders the map as a YAML mapping in key order.
func (m *Map) MarshalYAML() (any, error) { return format.YAMLNode(m) }

// sortKeys orders keys by cmp; with deep set, every nested Map (including
// maps inside lists) is sorted too. List order is kept.
func (m *Map) sortKeys(cmp func(a, b string) int, deep bool) {
	sort.SliceStable(m.keys, func(i, j int) bool { return cmp(m.keys[i], m.keys[j]) < 0 })
	if !deep {
		return
	}
	for _, k := range m.keys {
		sortDeep(m.vals[k], cmp)
	}
}

func sortDeep(v any, cmp func(a, b string) int) {
	switch t := v.(type) {
	case *Map:
		t.sortKeys(cmp, true)
	case []any:
		for _, it := range t {
			sortDeep(it, cmp)
		}
	}
}

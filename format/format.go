// Package format decodes serialized text (JSON, XML, YAML, CSV) into plain
// string-keyed maps and encodes output maps back to text.
//
// Decoders are pluggable per format name through SetDecoder, in the same way
// the JSON driver of a parser is swapped at runtime. Decoding is permissive:
// malformed text yields an empty map rather than an error. The only error a
// decode entry point returns is ErrUnsupported, when no decoder is installed
// for the requested format.
package format

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/reoring/godto/internal/xlog"
)

// Format names.
const (
	JSON = "json"
	XML  = "xml"
	YAML = "yaml"
	CSV  = "csv"
)

// ErrUnsupported indicates that no decoder is installed for a format.
var ErrUnsupported = errors.New("format: no decoder installed")

// Decoder turns text into a decoded tree of map[string]any, []any and scalars.
type Decoder interface {
	Decode(data []byte) (any, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(data []byte) (any, error)

func (f DecoderFunc) Decode(data []byte) (any, error) { return f(data) }

// Ordered is implemented by insertion-ordered maps; encoders walk its keys in
// order instead of sorting them.
type Ordered interface {
	Keys() []string
	Get(key string) (any, bool)
}

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{
		JSON: DecoderFunc(decodeJSON),
		XML:  DecoderFunc(decodeXML),
		YAML: DecoderFunc(decodeYAML),
		CSV:  DecoderFunc(func(b []byte) (any, error) { return decodeCSV(b, CSVOptions{}) }),
	}
)

// SetDecoder installs a decoder for name; nil removes it.
func SetDecoder(name string, d Decoder) {
	name = strings.ToLower(name)
	decodersMu.Lock()
	if d == nil {
		delete(decoders, name)
	} else {
		decoders[name] = d
	}
	decodersMu.Unlock()
}

// Supported reports whether a decoder is installed for name.
func Supported(name string) bool {
	_, ok := lookup(name)
	return ok
}

func lookup(name string) (Decoder, bool) {
	decodersMu.RLock()
	d, ok := decoders[strings.ToLower(name)]
	decodersMu.RUnlock()
	return d, ok
}

// Decode runs the decoder for name. Malformed input yields (nil, nil).
func Decode(name string, data []byte) (any, error) {
	d, ok := lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	v, err := d.Decode(data)
	if err != nil {
		xlog.L().Debug("decode failed, using empty input", zap.String("format", name), zap.Error(err))
		return nil, nil
	}
	return v, nil
}

// DecodeMap decodes text into a single map. Lists yield their first map
// element (the first CSV row, for instance); anything else yields an empty map.
func DecodeMap(name string, data []byte) (map[string]any, error) {
	v, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case []any:
		if len(t) > 0 {
			if m, ok := t[0].(map[string]any); ok {
				return m, nil
			}
		}
	}
	return map[string]any{}, nil
}

// DecodeList decodes text into a list of maps. A map holding exactly one
// list (an XML root with repeated children, or {"data": [...]}) is unwrapped.
func DecodeList(name string, data []byte) ([]map[string]any, error) {
	v, err := Decode(name, data)
	if err != nil {
		return nil, err
	}
	return asList(v), nil
}

func asList(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, it := range t {
			if m, ok := it.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if len(t) == 1 {
			for _, inner := range t {
				switch inner.(type) {
				case []any:
					return asList(inner)
				case map[string]any:
					return []map[string]any{inner.(map[string]any)}
				}
			}
		}
		return []map[string]any{t}
	}
	return []map[string]any{}
}

// keysOf returns the keys of an Ordered map in order, or a plain map's keys
// sorted ascending.
func keysOf(v any) ([]string, func(string) any, bool) {
	switch t := v.(type) {
	case Ordered:
		return t.Keys(), func(k string) any { x, _ := t.Get(k); return x }, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) any { return t[k] }, true
	}
	return nil, nil, false
}

// wrapped nests v under key when key is non-empty.
func wrapped(v any, key string) any {
	if key == "" {
		return v
	}
	return &pair{key: key, val: v}
}

// pair is a single-key Ordered map.
type pair struct {
	key string
	val any
}

func (p *pair) Keys() []string { return []string{p.key} }
func (p *pair) Get(k string) (any, bool) {
	if k == p.key {
		return p.val, true
	}
	return nil, false
}

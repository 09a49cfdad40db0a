// Package coerce implements the scalar auto-coercion rules shared by the input
// pipeline, the type-coercion normalizer and the primitive casts.
package coerce

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind is the coarse primitive category of a declared property type.
type Kind int

const (
	Invalid Kind = iota
	Int
	Float
	Bool
	String
	Array
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Array:
		return "array"
	default:
		return "invalid"
	}
}

// ParseKind maps a textual token ("int", "integer", "float", ...) to a Kind.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return Int
	case "float", "double", "number":
		return Float
	case "bool", "boolean":
		return Bool
	case "string":
		return String
	case "array", "json":
		return Array
	default:
		return Invalid
	}
}

// KindOf classifies a Go type. Pointers are dereferenced; interfaces,
// structs and other composite types are Invalid (no auto-coercion).
func KindOf(t reflect.Type) Kind {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return Invalid
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int
	case reflect.Float32, reflect.Float64:
		return Float
	case reflect.Bool:
		return Bool
	case reflect.String:
		return String
	case reflect.Slice, reflect.Array, reflect.Map:
		return Array
	default:
		return Invalid
	}
}

// MismatchError reports a value that cannot be coerced to the expected kind.
type MismatchError struct {
	Expected Kind
	Value    any
	Reason   string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("cannot coerce %s to %s", TypeName(e.Value), e.Expected)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func mismatch(k Kind, v any, reason string) error {
	return &MismatchError{Expected: k, Value: v, Reason: reason}
}

var numericRe = regexp.MustCompile(`^\s*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?\s*$`)

// IsNumeric reports whether s is a decimal numeric string (scientific
// notation allowed, surrounding whitespace tolerated).
func IsNumeric(s string) bool { return numericRe.MatchString(s) }

// To coerces v to kind k. Values already of the target kind pass through
// unchanged.
func To(k Kind, v any) (any, error) {
	switch k {
	case Int:
		if isIntValue(v) {
			return v, nil
		}
		return ToInt(v)
	case Float:
		if isFloatValue(v) {
			return v, nil
		}
		return ToFloat(v)
	case Bool:
		if _, ok := v.(bool); ok {
			return v, nil
		}
		return ToBool(v)
	case String:
		if _, ok := v.(string); ok {
			return v, nil
		}
		return ToString(v)
	case Array:
		return ToArray(v)
	default:
		return v, nil
	}
}

// ToInt converts numeric strings (fraction truncated), bools and numbers.
func ToInt(v any) (int64, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return ToInt(string(t))
	case string:
		if !IsNumeric(t) {
			return 0, mismatch(Int, v, "non-numeric string")
		}
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !fitsInt64(f) {
			return 0, mismatch(Int, v, "out of range")
		}
		return int64(f), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt64 {
			return 0, mismatch(Int, v, "out of range")
		}
		return int64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, mismatch(Int, v, "not a finite number")
		}
		if !fitsInt64(f) {
			return 0, mismatch(Int, v, "out of range")
		}
		return int64(f), nil
	}
	return 0, mismatch(Int, v, "")
}

// fitsInt64 reports whether f truncates to a value in the int64 range.
// math.MaxInt64 rounds up to 2^63 as a float64, hence the strict bound.
func fitsInt64(f float64) bool {
	return !math.IsNaN(f) && f >= math.MinInt64 && f < math.MaxInt64
}

// ToFloat converts numeric strings (including scientific notation), bools and
// numbers.
func ToFloat(v any) (float64, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case json.Number:
		return ToFloat(string(t))
	case string:
		if !IsNumeric(t) {
			return 0, mismatch(Float, v, "non-numeric string")
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, mismatch(Float, v, "out of range")
		}
		return f, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, mismatch(Float, v, "")
}

// ToBool accepts true/1/yes/on and false/0/no/off (case-insensitive), the
// empty string (false) and numbers (non-zero is true).
func ToBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case json.Number:
		f, err := ToFloat(string(t))
		if err != nil {
			return false, mismatch(Bool, v, "")
		}
		return f != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off", "":
			return false, nil
		}
		return false, mismatch(Bool, v, "unrecognized boolean string")
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0, nil
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0, nil
	}
	return false, mismatch(Bool, v, "")
}

// ToString formats numbers with the shortest decimal text and bools as "1"/"".
// Arrays, maps and structs are rejected.
func ToString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return string(t), nil
	case bool:
		if t {
			return "1", nil
		}
		return "", nil
	case fmt.Stringer:
		return t.String(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", mismatch(String, v, "")
}

// ToArray passes slices and maps through and decodes JSON text into a
// map[string]any (objects) or []any (lists).
func ToArray(v any) (any, error) {
	if s, ok := v.(string); ok {
		out, err := DecodeJSON([]byte(s))
		if err != nil {
			return nil, mismatch(Array, v, "invalid JSON")
		}
		switch out.(type) {
		case map[string]any, []any:
			return out, nil
		}
		return nil, mismatch(Array, v, "JSON text is not an object or list")
	}
	if v == nil {
		return nil, mismatch(Array, v, "")
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v, nil
	}
	return nil, mismatch(Array, v, "")
}

// DecodeJSON decodes JSON text keeping integral numbers as int64 and the rest
// as float64.
func DecodeJSON(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("coerce: trailing data after JSON value")
	}
	return NormalizeNumbers(out), nil
}

// NormalizeNumbers replaces json.Number values recursively.
func NormalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return string(t)
	case map[string]any:
		for k, vv := range t {
			t[k] = NormalizeNumbers(vv)
		}
		return t
	case []any:
		for i, vv := range t {
			t[i] = NormalizeNumbers(vv)
		}
		return t
	default:
		return v
	}
}

// TypeName renders the runtime type of v the way error messages show it.
func TypeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string, json.Number:
		return "string"
	case bool:
		return "bool"
	case map[string]any:
		return "map"
	case []any:
		return "array"
	}
	rt := reflect.TypeOf(v)
	switch KindOf(rt) {
	case Int:
		return "int"
	case Float:
		return "float"
	case Array:
		if rt.Kind() == reflect.Map {
			return "map"
		}
		return "array"
	}
	return rt.String()
}

func isIntValue(v any) bool {
	if v == nil {
		return false
	}
	return KindOf(reflect.TypeOf(v)) == Int && reflect.TypeOf(v).Kind() != reflect.Pointer
}

func isFloatValue(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Float32 || k == reflect.Float64
}

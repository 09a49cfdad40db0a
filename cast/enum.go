package cast

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/reoring/godto/internal/coerce"
)

// Enum is implemented by backed enumeration types. EnumValues returns every
// case as a value of the implementing type; the backing scalar is the
// underlying string or integer.
type Enum interface {
	EnumValues() []any
}

var (
	enumMu    sync.RWMutex
	enumNamed = map[string][]any{}
)

// RegisterEnum makes a set of cases available as "enum:<name>" for
// properties whose type does not implement Enum.
func RegisterEnum(name string, cases ...any) {
	enumMu.Lock()
	enumNamed[name] = append([]any(nil), cases...)
	enumMu.Unlock()
}

// enumCast resolves a raw scalar to the matching case and emits the backing
// scalar on output.
type enumCast struct{}

func (enumCast) ToProperty(v any, s Spec) (any, error) {
	cases, err := enumCases(s)
	if err != nil {
		return nil, fail(s, v, err.Error(), err)
	}
	raw := deref(v)
	for _, c := range cases {
		if reflect.TypeOf(c) == reflect.TypeOf(raw) && c == raw {
			return c, nil
		}
	}
	for _, c := range cases {
		if backingEqual(Backing(c), raw) {
			return c, nil
		}
	}
	return nil, fail(s, v, fmt.Sprintf("no enum case matches %v", raw), nil)
}

func (enumCast) ToOutput(v any, _ Spec) (any, error) { return Backing(deref(v)), nil }

// Cases returns the enum cases an "enum" cast resolves against: those of
// the target type when it implements Enum, else those registered under the
// cast argument.
func Cases(s Spec) ([]any, error) { return enumCases(s) }

func enumCases(s Spec) ([]any, error) {
	if t := targetElem(s.Target); t != nil {
		if e, ok := reflect.Zero(t).Interface().(Enum); ok {
			return e.EnumValues(), nil
		}
	}
	if s.Arg != "" {
		enumMu.RLock()
		cases, ok := enumNamed[s.Arg]
		enumMu.RUnlock()
		if ok {
			return cases, nil
		}
		return nil, fmt.Errorf("enum %q is not registered", s.Arg)
	}
	return nil, fmt.Errorf("property type does not implement cast.Enum")
}

// Backing returns the plain scalar behind an enum case: a string for
// string-backed types and an int64 for integer-backed ones.
func Backing(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return v
	}
}

func backingEqual(backing, raw any) bool {
	switch b := backing.(type) {
	case string:
		s, err := coerce.ToString(raw)
		return err == nil && s == b
	case int64:
		i, err := coerce.ToInt(raw)
		if err != nil {
			return false
		}
		if f, ferr := coerce.ToFloat(raw); ferr == nil && f != float64(i) {
			return false
		}
		return i == b
	default:
		return backing == raw
	}
}

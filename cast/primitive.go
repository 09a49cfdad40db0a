package cast

import (
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/reoring/godto/internal/coerce"
)

// booleanCast reuses the boolean coercion rules on input and renders 0/1.
type booleanCast struct{}

func (booleanCast) ToProperty(v any, s Spec) (any, error) {
	b, err := coerce.ToBool(deref(v))
	if err != nil {
		return nil, fail(s, v, "not a boolean", err)
	}
	return b, nil
}

func (booleanCast) ToOutput(v any, s Spec) (any, error) {
	b, err := coerce.ToBool(deref(v))
	if err != nil {
		return nil, fail(s, v, "not a boolean", err)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}

// primitiveCast forces one of the scalar coercions; output is unchanged.
type primitiveCast struct{ kind coerce.Kind }

func (c primitiveCast) ToProperty(v any, s Spec) (any, error) {
	out, err := coerce.To(c.kind, deref(v))
	if err != nil {
		return nil, fail(s, v, err.Error(), err)
	}
	return out, nil
}

func (primitiveCast) ToOutput(v any, _ Spec) (any, error) { return v, nil }

// jsonCast decodes JSON text on input and encodes to JSON text on output.
// With structured set ("array") the decoded value must be an object or list.
type jsonCast struct{ structured bool }

func (c jsonCast) ToProperty(v any, s Spec) (any, error) {
	v = deref(v)
	if v == nil {
		return nil, nil
	}
	str, ok := v.(string)
	if !ok {
		if c.structured {
			switch reflect.TypeOf(v).Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
			default:
				return nil, fail(s, v, "expected JSON text, list or map", nil)
			}
		}
		return v, nil
	}
	if c.structured {
		out, err := coerce.ToArray(str)
		if err != nil {
			return nil, fail(s, v, "invalid JSON", err)
		}
		return out, nil
	}
	out, err := coerce.DecodeJSON([]byte(str))
	if err != nil {
		return nil, fail(s, v, "invalid JSON", err)
	}
	return out, nil
}

func (jsonCast) ToOutput(v any, s Spec) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fail(s, v, "cannot encode JSON", err)
	}
	return string(b), nil
}

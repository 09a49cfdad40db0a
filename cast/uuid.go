package cast

import (
	"reflect"

	"github.com/google/uuid"
)

// uuidCast parses UUID text into uuid.UUID (or canonical text for string
// properties) and renders the canonical string form.
type uuidCast struct{}

func (uuidCast) ToProperty(v any, s Spec) (any, error) {
	var u uuid.UUID
	switch t := deref(v).(type) {
	case uuid.UUID:
		u = t
	case string:
		parsed, err := uuid.Parse(t)
		if err != nil {
			return nil, fail(s, v, "invalid UUID", err)
		}
		u = parsed
	case []byte:
		parsed, err := uuid.FromBytes(t)
		if err != nil {
			return nil, fail(s, v, "invalid UUID bytes", err)
		}
		u = parsed
	default:
		return nil, fail(s, v, "expected UUID text", nil)
	}
	if t := targetElem(s.Target); t != nil && t.Kind() == reflect.String {
		return u.String(), nil
	}
	return u, nil
}

func (uuidCast) ToOutput(v any, s Spec) (any, error) {
	switch t := deref(v).(type) {
	case uuid.UUID:
		return t.String(), nil
	case string:
		return t, nil
	}
	return nil, fail(s, v, "expected uuid.UUID", nil)
}

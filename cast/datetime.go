package cast

import (
	"reflect"
	"time"

	"github.com/reoring/godto/internal/coerce"
)

// fallbackLayouts are tried after the configured layout and RFC3339.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// datetimeCast converts between strings and time.Time. The argument is a Go
// layout used for output and tried first on input; RFC3339 is the default.
type datetimeCast struct{}

// A string property keeps the normalized text: the layout when given, else
// canonical RFC3339.
func (c datetimeCast) ToProperty(v any, s Spec) (any, error) {
	tv, err := c.toTime(v, s)
	if err != nil {
		return nil, err
	}
	if t := targetElem(s.Target); t != nil && t.Kind() == reflect.String {
		return formatTime(tv, s), nil
	}
	return tv, nil
}

func (datetimeCast) toTime(v any, s Spec) (time.Time, error) {
	switch t := deref(v).(type) {
	case time.Time:
		return t, nil
	case string:
		tm, err := parseTime(t, s.Arg)
		if err != nil {
			return time.Time{}, fail(s, v, "unparseable date/time", err)
		}
		return tm, nil
	}
	if coerce.KindOf(reflect.TypeOf(v)) == coerce.Int {
		sec, err := coerce.ToInt(v)
		if err == nil {
			return time.Unix(sec, 0).UTC(), nil
		}
	}
	return time.Time{}, fail(s, v, "expected a date/time string", nil)
}

func (datetimeCast) ToOutput(v any, s Spec) (any, error) {
	switch t := deref(v).(type) {
	case time.Time:
		return formatTime(t, s), nil
	case string:
		tm, err := parseTime(t, s.Arg)
		if err != nil {
			return nil, fail(s, v, "unparseable date/time", err)
		}
		return formatTime(tm, s), nil
	}
	return nil, fail(s, v, "expected time.Time or a date/time string", nil)
}

func formatTime(t time.Time, s Spec) string {
	if s.Arg != "" {
		return t.Format(s.Arg)
	}
	return formatRFC3339Canonical(t)
}

func parseTime(s, layout string) (time.Time, error) {
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := parseRFC3339(s)
	if err == nil {
		return t, nil
	}
	for _, l := range fallbackLayouts {
		if t2, err2 := time.Parse(l, s); err2 == nil {
			return t2, nil
		}
	}
	return time.Time{}, err
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}

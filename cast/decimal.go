package cast

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/reoring/godto/internal/coerce"
)

// DefaultDecimalPlaces is used when a decimal cast declares no precision.
const DefaultDecimalPlaces = 2

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalCast keeps numeric text on input and renders exactly N fractional
// digits on output. "decimal:N" rounds half away from zero,
// "decimal:N:truncate" drops the extra digits instead.
type decimalCast struct{}

func (decimalCast) ToProperty(v any, s Spec) (any, error) {
	d, err := toDecimal(v)
	if err != nil {
		return nil, fail(s, v, "not a decimal number", err)
	}
	if t := targetElem(s.Target); t == decimalType {
		return d, nil
	}
	if str, ok := deref(v).(string); ok {
		return strings.TrimSpace(str), nil
	}
	return d.String(), nil
}

func (decimalCast) ToOutput(v any, s Spec) (any, error) {
	d, err := toDecimal(v)
	if err != nil {
		return nil, fail(s, v, "not a decimal number", err)
	}
	places, truncate, err := decimalArgs(s)
	if err != nil {
		return nil, fail(s, v, err.Error(), err)
	}
	if truncate {
		d = d.Truncate(places)
	}
	return d.StringFixed(places), nil
}

func decimalArgs(s Spec) (int32, bool, error) {
	places := int32(DefaultDecimalPlaces)
	truncate := false
	for i, a := range s.Args() {
		if i == 0 && a != "" {
			n, err := strconv.Atoi(a)
			if err != nil || n < 0 {
				return 0, false, &Error{Token: s.Token, Reason: "precision must be a non-negative integer"}
			}
			places = int32(n)
			continue
		}
		if strings.EqualFold(a, "truncate") {
			truncate = true
		}
	}
	return places, truncate, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := deref(v).(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(t))
	case float32:
		return decimal.NewFromFloat32(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	}
	str, err := coerce.ToString(deref(v))
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(str)
}

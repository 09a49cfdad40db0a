package godto

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/go-playground/validator/v10"

	"github.com/reoring/godto/cast"
	"github.com/reoring/godto/internal/coerce"
)

// pipeline carries the collaborators of one load or render call.
type pipeline struct {
	resolver *Resolver
	registry *cast.Registry
}

func newPipeline(opt LoadOpt) *pipeline {
	p := &pipeline{resolver: opt.Resolver, registry: opt.Registry}
	if p.resolver == nil {
		p.resolver = DefaultResolver()
	}
	if p.registry == nil {
		p.registry = cast.Default()
	} else if _, ok := p.registry.Lookup(collectionCastName); !ok {
		p.registry.Register(collectionCastName, collectionCast{})
	}
	return p
}

func defaultPipeline() *pipeline { return newPipeline(LoadOpt{}) }

var validate = validator.New(validator.WithRequiredStructEnabled())

// FromMap runs the input pipeline over m and returns the constructed DTO.
// m is never modified.
func FromMap[T any](m map[string]any, opts ...LoadOpt) (*DTO[T], error) {
	opt := lastOpt(opts)
	p := newPipeline(opt)
	return load[T](p, p.prepare(m, opt))
}

// prepare applies the template, the key filter and the normalizer chain.
func (p *pipeline) prepare(m map[string]any, opt LoadOpt) map[string]any {
	if m == nil {
		m = map[string]any{}
	}
	if len(opt.Template) > 0 {
		m = applyTemplate(opt.Template, m)
	}
	if len(opt.Filter) > 0 {
		m = filterKeys(m, opt.Filter)
	}
	return Normalize(m, opt.Normalizers...)
}

func load[T any](p *pipeline, m map[string]any) (*DTO[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, definitionError(t, "", "DTO types must be structs")
	}
	ptr, meta, err := p.build(t, m)
	if err != nil {
		return nil, err
	}
	return newDTO(ptr.Interface().(*T), meta, p), nil
}

// build materializes a new *t from in. Construction is all-or-nothing.
func (p *pipeline) build(t reflect.Type, in map[string]any) (reflect.Value, *TypeMeta, error) {
	meta, err := p.resolver.Resolve(t)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	out := reflect.New(meta.Type)
	for i := range meta.Fields {
		if err := p.loadField(meta, &meta.Fields[i], in, out.Elem()); err != nil {
			return reflect.Value{}, nil, err
		}
	}
	return out, meta, nil
}

func (p *pipeline) loadField(meta *TypeMeta, f *FieldMeta, in map[string]any, out reflect.Value) error {
	key := meta.InputKey(f)
	dst := out.FieldByIndex(f.Index)
	raw, present := in[key]
	if !present {
		switch {
		case f.HasDefault:
			if ae := p.assign(dst, f.Default); ae != nil {
				return fieldError(meta, f, ae)
			}
			return nil
		case f.Nullable:
			return nil
		}
		e := &Error{
			Code:        CodeRequired,
			Type:        meta.Name,
			Property:    f.Name,
			Path:        f.Name,
			Expected:    expectedName(f.Type),
			Suggestions: suggest(key, sortedKeys(in)),
		}
		if key != f.Name {
			e.Reason = fmt.Sprintf("input key %q not found", key)
		}
		return e
	}
	v, err := p.convert(meta, f, raw)
	if err != nil {
		return err
	}
	if ae := p.assign(dst, v); ae != nil {
		return fieldError(meta, f, ae)
	}
	return validateField(meta, f, dst)
}

// convert applies auto-coercion and the input cast.
func (p *pipeline) convert(meta *TypeMeta, f *FieldMeta, raw any) (any, error) {
	if raw == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, &Error{
			Code:     CodeInvalidType,
			Type:     meta.Name,
			Property: f.Name,
			Path:     f.Name,
			Expected: expectedName(f.Type),
			Actual:   "null",
			Preview:  "null",
			Hints:    typeHints(expectedName(f.Type), nil, false),
		}
	}
	v := raw
	if f.Kind != coerce.Invalid {
		cv, err := coerce.To(f.Kind, v)
		if err != nil {
			e := &Error{
				Code:     CodeInvalidType,
				Type:     meta.Name,
				Property: f.Name,
				Path:     f.Name,
				Expected: f.Kind.String(),
				Actual:   coerce.TypeName(v),
				Preview:  preview(v),
				Hints:    typeHints(f.Kind.String(), v, f.Nullable),
				Cause:    err,
			}
			var me *coerce.MismatchError
			if errors.As(err, &me) {
				e.Reason = me.Reason
			}
			return nil, e
		}
		v = cv
	}
	if !f.Cast.IsZero() {
		s := f.Cast
		s.Target, s.Env = f.Type, p
		cv, err := p.registry.ToProperty(s, v)
		if err != nil {
			return nil, castError(meta, f, v, err)
		}
		v = cv
	}
	return v, nil
}

func castError(meta *TypeMeta, f *FieldMeta, v any, err error) error {
	var ce *collectionError
	if errors.As(err, &ce) {
		return nested(meta.Name, f.Name, []string{strconv.Itoa(ce.index)}, ce.err)
	}
	if de, ok := AsError(err); ok {
		out := *de
		if out.Type == "" {
			out.Type = meta.Name
		}
		if out.Property == "" {
			out.Property, out.Path = f.Name, f.Name
		}
		if out.Cast == "" {
			out.Cast = f.Cast.Token
		}
		return &out
	}
	e := &Error{
		Code:     CodeInvalidCast,
		Type:     meta.Name,
		Property: f.Name,
		Path:     f.Name,
		Cast:     f.Cast.Token,
		Actual:   coerce.TypeName(v),
		Preview:  preview(v),
		Reason:   err.Error(),
		Cause:    err,
	}
	var cerr *cast.Error
	if errors.As(err, &cerr) {
		e.Reason = cerr.Reason
	}
	return e
}

func validateField(meta *TypeMeta, f *FieldMeta, dst reflect.Value) (err error) {
	if f.Rules == "" {
		return nil
	}
	defer func() {
		// validator panics on malformed rule strings
		if r := recover(); r != nil {
			err = definitionError(meta.Type, f.Name, fmt.Sprintf("bad validate tag %q: %v", f.Rules, r))
		}
	}()
	verr := validate.Var(dst.Interface(), f.Rules)
	if verr == nil {
		return nil
	}
	e := &Error{
		Code:     CodeValidation,
		Type:     meta.Name,
		Property: f.Name,
		Path:     f.Name,
		Actual:   coerce.TypeName(dst.Interface()),
		Preview:  preview(dst.Interface()),
		Cause:    verr,
	}
	var ves validator.ValidationErrors
	if errors.As(verr, &ves) && len(ves) > 0 {
		e.Rule = ves[0].Tag()
		if param := ves[0].Param(); param != "" {
			e.Rule += "=" + param
		}
	} else {
		e.Reason = verr.Error()
	}
	return e
}

// assignError reports a value that could not be stored into a Go value.
// sub holds the element path below the field (slice indexes, map keys).
type assignError struct {
	sub   []string
	want  reflect.Type
	got   any
	inner *Error // nested DTO failure
	cause error
}

func (ae *assignError) under(seg string) *assignError {
	ae.sub = append([]string{seg}, ae.sub...)
	return ae
}

func fieldError(meta *TypeMeta, f *FieldMeta, ae *assignError) error {
	if ae.inner != nil {
		return nested(meta.Name, f.Name, ae.sub, ae.inner)
	}
	want := expectedName(ae.want)
	e := &Error{
		Code:     CodeInvalidType,
		Type:     meta.Name,
		Property: f.Name,
		Path:     strings.Join(append([]string{f.Name}, ae.sub...), "."),
		Expected: want,
		Actual:   coerce.TypeName(ae.got),
		Preview:  preview(ae.got),
		Hints:    typeHints(want, ae.got, f.Nullable),
		Cause:    ae.cause,
	}
	if ae.cause != nil {
		e.Reason = ae.cause.Error()
	}
	return e
}

// dtoValuer is implemented by *DTO[T]; it exposes the wrapped struct.
type dtoValuer interface {
	dtoValue() any
}

// assign stores v into dst, converting element-wise where the shapes allow:
// maps become nested structs, lists become typed slices and scalars are
// coerced to the destination kind.
func (p *pipeline) assign(dst reflect.Value, v any) *assignError {
	dt := dst.Type()
	if v == nil {
		dst.Set(reflect.Zero(dt))
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dt) {
		dst.Set(rv)
		return nil
	}
	if dv, ok := v.(dtoValuer); ok {
		return p.assign(dst, dv.dtoValue())
	}
	if dt.Kind() == reflect.Pointer {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		elem := reflect.New(dt.Elem())
		if ae := p.assign(elem.Elem(), v); ae != nil {
			return ae
		}
		dst.Set(elem)
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			dst.Set(reflect.Zero(dt))
			return nil
		}
		return p.assign(dst, rv.Elem().Interface())
	}
	if s, ok := v.(string); ok && dst.CanAddr() {
		if tu, ok := dst.Addr().Interface().(encoding.TextUnmarshaler); ok {
			if err := tu.UnmarshalText([]byte(s)); err != nil {
				return &assignError{want: dt, got: v, cause: err}
			}
			return nil
		}
	}
	switch dt.Kind() {
	case reflect.Struct:
		if m, ok := v.(map[string]any); ok && !isOpaque(dt) {
			built, _, err := p.build(dt, m)
			if err != nil {
				if de, ok := AsError(err); ok {
					return &assignError{inner: de}
				}
				return &assignError{want: dt, got: v, cause: err}
			}
			dst.Set(built.Elem())
			return nil
		}
	case reflect.Slice:
		if list, ok := asAnySlice(v); ok {
			out := reflect.MakeSlice(dt, len(list), len(list))
			for i, it := range list {
				if ae := p.assign(out.Index(i), it); ae != nil {
					return ae.under(strconv.Itoa(i))
				}
			}
			dst.Set(out)
			return nil
		}
	case reflect.Map:
		if m, ok := v.(map[string]any); ok && dt.Key().Kind() == reflect.String {
			out := reflect.MakeMapWithSize(dt, len(m))
			for k, it := range m {
				ev := reflect.New(dt.Elem()).Elem()
				if ae := p.assign(ev, it); ae != nil {
					return ae.under(k)
				}
				out.SetMapIndex(reflect.ValueOf(k).Convert(dt.Key()), ev)
			}
			dst.Set(out)
			return nil
		}
	}
	if k := coerce.KindOf(dt); k != coerce.Invalid && k != coerce.Array && !isOpaque(dt) {
		cv, err := coerce.To(k, v)
		if err != nil {
			return &assignError{want: dt, got: v, cause: err}
		}
		if out, ok := convertScalar(reflect.ValueOf(cv), dt); ok {
			dst.Set(out)
			return nil
		}
	}
	return &assignError{want: dt, got: v}
}

// convertScalar converts between numeric kinds (with overflow checks),
// between string kinds and between bool kinds.
func convertScalar(rv reflect.Value, dt reflect.Type) (reflect.Value, bool) {
	probe := reflect.New(dt).Elem()
	switch dt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			i = rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			i = int64(rv.Uint())
		default:
			return reflect.Value{}, false
		}
		if probe.OverflowInt(i) {
			return reflect.Value{}, false
		}
		probe.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() < 0 {
				return reflect.Value{}, false
			}
			u = uint64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			u = rv.Uint()
		default:
			return reflect.Value{}, false
		}
		if probe.OverflowUint(u) {
			return reflect.Value{}, false
		}
		probe.SetUint(u)
	case reflect.Float32, reflect.Float64:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			probe.SetFloat(rv.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			probe.SetFloat(float64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			probe.SetFloat(float64(rv.Uint()))
		default:
			return reflect.Value{}, false
		}
	case reflect.String:
		if rv.Kind() != reflect.String {
			return reflect.Value{}, false
		}
		probe.SetString(rv.String())
	case reflect.Bool:
		if rv.Kind() != reflect.Bool {
			return reflect.Value{}, false
		}
		probe.SetBool(rv.Bool())
	default:
		return reflect.Value{}, false
	}
	return probe, true
}

// asAnySlice views any slice or array (except byte slices) as []any.
func asAnySlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var (
	timeType            = reflect.TypeFor[time.Time]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	jsonMarshalerType   = reflect.TypeFor[json.Marshaler]()
)

// isOpaque reports types handled as single values rather than as nested
// DTOs or coercible scalars: time.Time, uuid.UUID, decimal.Decimal and
// anything else with its own text or JSON form.
func isOpaque(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t == timeType {
		return true
	}
	return t.Implements(textMarshalerType) || t.Implements(jsonMarshalerType) ||
		reflect.PointerTo(t).Implements(textUnmarshalerType)
}

// expectedName renders a declared type for error messages.
func expectedName(t reflect.Type) string {
	t = derefType(t)
	if t == nil {
		return "null"
	}
	if !isOpaque(t) {
		switch k := coerce.KindOf(t); k {
		case coerce.Int, coerce.Float, coerce.Bool, coerce.String:
			return k.String()
		case coerce.Array:
			if t.Kind() == reflect.Map {
				return "map"
			}
			return "array"
		}
	}
	return typeLabel(t)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

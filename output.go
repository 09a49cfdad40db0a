package godto

import (
	"reflect"
	"sort"

	"github.com/expr-lang/expr"
	"go.uber.org/zap"

	"github.com/reoring/godto/format"
	"github.com/reoring/godto/internal/xlog"
)

// renderer is implemented by values that render through their own output
// pipeline (*DTO[T] and *Collection[T]).
type renderer interface {
	renderAs(json bool) (any, error)
}

// renderEnv is the cast.Spec.Env handed to output casts.
type renderEnv struct {
	p    *pipeline
	json bool
}

// ToMap renders the DTO for the map context: hidden_map fields are dropped.
func (d *DTO[T]) ToMap() (*Map, error) { return d.render(false) }

// JSONMap renders the DTO for the JSON context: hidden_json fields are
// dropped.
func (d *DTO[T]) JSONMap() (*Map, error) { return d.render(true) }

// MarshalJSON implements json.Marshaler.
func (d *DTO[T]) MarshalJSON() ([]byte, error) {
	m, err := d.JSONMap()
	if err != nil {
		return nil, err
	}
	return m.MarshalJSON()
}

func (d *DTO[T]) renderAs(json bool) (any, error) { return d.render(json) }

func (d *DTO[T]) render(json bool) (*Map, error) {
	out, err := d.p.renderFields(d.meta, reflect.ValueOf(d.ptr), &d.view, d.cache, json)
	if err != nil {
		return nil, err
	}
	if d.view.sortCmp != nil {
		out.sortKeys(d.view.sortCmp, d.view.nestedSort)
	}
	if key, ok := d.view.wrap(d.meta); ok {
		w := NewMap()
		w.Set(key, out)
		out = w
	}
	return out, nil
}

// renderFields emits declared properties in declaration order, then
// computed fields. A nil view is the default view; a nil cache disables
// memoization.
func (p *pipeline) renderFields(meta *TypeMeta, ptr reflect.Value, view *viewConfig, cache *computedCache, json bool) (*Map, error) {
	out := NewMap()
	elem := ptr.Elem()
	var env map[string]any
	for i := range meta.Fields {
		f := &meta.Fields[i]
		if f.Hidden || (json && f.HiddenFromJSON) || (!json && f.HiddenFromMap) {
			continue
		}
		key := meta.OutputKey(f)
		if f.Lazy && !view.lazyIncluded(f.Name, key) {
			if f.When == nil {
				continue
			}
			if env == nil {
				env = whenEnv(meta, elem)
			}
			if !evalWhen(meta, f, env) {
				continue
			}
		}
		if !view.allows(key) {
			continue
		}
		v, err := p.outputField(meta, f, elem.FieldByIndex(f.Index), json)
		if err != nil {
			return nil, err
		}
		out.Set(key, v)
	}
	for i := range meta.Computed {
		cm := &meta.Computed[i]
		key := meta.ComputedKey(cm)
		if cm.Lazy && !view.lazyIncluded(cm.Key, cm.Method, key) {
			continue
		}
		if !view.allows(key) {
			continue
		}
		var v any
		if r := cache.value(meta.Name, cm, ptr); !r.failed {
			pv, err := p.plainValue(r.value, json)
			if err != nil {
				computedFailed(meta.Name, cm, err)
			} else {
				v = pv
			}
		}
		out.Set(key, v)
	}
	return out, nil
}

func (p *pipeline) outputField(meta *TypeMeta, f *FieldMeta, fv reflect.Value, json bool) (any, error) {
	if isNil(fv) {
		return nil, nil
	}
	v := fv.Interface()
	if f.Cast.IsZero() {
		return p.plainValue(v, json)
	}
	s := f.Cast
	s.Target, s.Env = f.Type, &renderEnv{p: p, json: json}
	out, err := p.registry.ToOutput(s, v)
	if err != nil {
		return nil, castError(meta, f, v, err)
	}
	return p.plainValue(out, json)
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return !v.IsValid()
}

// plainValue turns nested DTOs, structs, slices and maps into *Map and
// []any trees. Opaque values (time.Time, uuid.UUID, ...) and scalars are
// returned unchanged.
func (p *pipeline) plainValue(v any, json bool) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *Map:
		return t, nil
	case renderer:
		if isNil(reflect.ValueOf(v)) {
			return nil, nil
		}
		return t.renderAs(json)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}
		return p.plainValue(rv.Elem().Interface(), json)
	}
	if isOpaque(rv.Type()) {
		return v, nil
	}
	switch rv.Kind() {
	case reflect.Struct:
		meta, err := p.resolver.Resolve(rv.Type())
		if err != nil {
			return nil, err
		}
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		return p.renderFields(meta, ptr, nil, nil, json)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			ev, err := p.plainValue(rv.Index(i).Interface(), json)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return v, nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		out := NewMap()
		for _, k := range keys {
			ev, err := p.plainValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface(), json)
			if err != nil {
				return nil, err
			}
			out.Set(k, ev)
		}
		return out, nil
	}
	return v, nil
}

// whenEnv exposes property values, keyed by property name, to when
// expressions. Pointers are dereferenced.
func whenEnv(meta *TypeMeta, elem reflect.Value) map[string]any {
	env := make(map[string]any, len(meta.Fields))
	for i := range meta.Fields {
		f := &meta.Fields[i]
		fv := elem.FieldByIndex(f.Index)
		for fv.Kind() == reflect.Pointer && !fv.IsNil() {
			fv = fv.Elem()
		}
		if isNil(fv) {
			env[f.Name] = nil
			continue
		}
		env[f.Name] = fv.Interface()
	}
	return env
}

func evalWhen(meta *TypeMeta, f *FieldMeta, env map[string]any) bool {
	out, err := expr.Run(f.When, env)
	if err != nil {
		xlog.L().Debug("when expression failed",
			zap.String("type", meta.Name),
			zap.String("property", f.Name),
			zap.String("expr", f.WhenSource),
			zap.Error(err),
		)
		return false
	}
	b, _ := out.(bool)
	return b
}

// ToJSON renders the JSON context as text.
func (d *DTO[T]) ToJSON(opts ...format.JSONOptions) (string, error) {
	m, err := d.JSONMap()
	if err != nil {
		return "", err
	}
	return format.EncodeJSON(m, lastOf(opts))
}

// ToXML renders the map context as an XML document.
func (d *DTO[T]) ToXML(opts ...format.XMLOptions) (string, error) {
	m, err := d.ToMap()
	if err != nil {
		return "", err
	}
	return format.EncodeXML(m, lastOf(opts))
}

// ToYAML renders the map context as YAML.
func (d *DTO[T]) ToYAML(opts ...format.YAMLOptions) (string, error) {
	m, err := d.ToMap()
	if err != nil {
		return "", err
	}
	return format.EncodeYAML(m, lastOf(opts))
}

// ToCSV renders the map context as a one-row CSV document.
func (d *DTO[T]) ToCSV(opts ...format.CSVOptions) (string, error) {
	m, err := d.ToMap()
	if err != nil {
		return "", err
	}
	return format.EncodeCSV(m, lastOf(opts))
}

func lastOf[O any](opts []O) O {
	var zero O
	if len(opts) == 0 {
		return zero
	}
	return opts[len(opts)-1]
}

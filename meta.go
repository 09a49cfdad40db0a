package godto

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reoring/godto/cast"
	"github.com/reoring/godto/internal/coerce"
	"github.com/reoring/godto/naming"
)

// TypeMeta is the resolved, immutable metadata of a DTO type.
type TypeMeta struct {
	Name         string
	Type         reflect.Type
	Fields       []FieldMeta // declaration order
	Computed     []ComputedMeta
	InputNaming  naming.Convention
	OutputNaming naming.Convention
	Wrap         string
	Wrapped      bool

	byName map[string]int
}

// Field looks up a declared property by name.
func (m *TypeMeta) Field(name string) (*FieldMeta, bool) {
	i, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return &m.Fields[i], true
}

// InputKey is the input map key read for f: the map= override, else the
// class input naming applied to the property name, else the name itself.
func (m *TypeMeta) InputKey(f *FieldMeta) string {
	if f.Source != "" {
		return f.Source
	}
	return m.InputNaming.Apply(f.Name)
}

// OutputKey is the output map key written for f.
func (m *TypeMeta) OutputKey(f *FieldMeta) string {
	if f.Target != "" {
		return f.Target
	}
	return m.OutputNaming.Apply(f.Name)
}

// ComputedKey is the output map key written for cm. An explicit Key is used
// as is.
func (m *TypeMeta) ComputedKey(cm *ComputedMeta) string {
	if cm.keyed {
		return cm.Key
	}
	return m.OutputNaming.Apply(cm.Key)
}

// FieldMeta describes one declared property.
type FieldMeta struct {
	Name     string // property name
	GoName   string
	Index    []int
	Type     reflect.Type
	Kind     coerce.Kind // Invalid when no auto-coercion applies
	Mixed    bool        // interface-typed: never coerced
	Nullable bool

	HasDefault bool
	Default    any

	Source     string // input key override
	Target     string // output key override
	Cast       cast.Spec
	Collection string // collection element target name
	Rules      string // validate tag

	Hidden         bool
	HiddenFromMap  bool
	HiddenFromJSON bool
	Lazy           bool
	When           *vm.Program
	WhenSource     string
}

// ComputedMeta describes one computed output field.
type ComputedMeta struct {
	Method string
	Key    string
	Lazy   bool
	Cache  bool

	fn      reflect.Value // method expression taking *T
	withErr bool
	keyed   bool // Key was set explicitly
}

// Resolver caches TypeMeta per type. It is safe for concurrent use.
type Resolver struct {
	mu    sync.RWMutex
	cache map[reflect.Type]*TypeMeta
}

// NewResolver returns an empty resolver.
func NewResolver() *Resolver { return &Resolver{cache: map[reflect.Type]*TypeMeta{}} }

var defaultResolver = NewResolver()

// DefaultResolver returns the process-wide resolver.
func DefaultResolver() *Resolver { return defaultResolver }

// Describe resolves the metadata of T through the default resolver.
func Describe[T any]() (*TypeMeta, error) {
	return DefaultResolver().Resolve(reflect.TypeFor[T]())
}

// Resolve returns the metadata of t (pointer types are dereferenced),
// building and caching it on first use.
func (r *Resolver) Resolve(t reflect.Type) (*TypeMeta, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	if m, ok := r.cache[t]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	m, err := buildMeta(t)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if existing, ok := r.cache[t]; ok { // double-check
		r.mu.Unlock()
		return existing, nil
	}
	r.cache[t] = m
	r.mu.Unlock()
	return m, nil
}

// Clear drops every cached entry.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.cache = map[reflect.Type]*TypeMeta{}
	r.mu.Unlock()
}

// Forget drops the entry for t.
func (r *Resolver) Forget(t reflect.Type) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.Lock()
	delete(r.cache, t)
	r.mu.Unlock()
}

// Len returns the number of cached types.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func definitionError(t reflect.Type, prop, reason string) *Error {
	return &Error{Code: CodeInvalidDefinition, Type: typeLabel(t), Property: prop, Path: prop, Reason: reason}
}

func buildMeta(t reflect.Type) (*TypeMeta, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, definitionError(t, "", "DTO types must be structs")
	}
	m := &TypeMeta{Name: typeLabel(t), Type: t, byName: map[string]int{}}
	if c, ok := reflect.New(t).Interface().(Configurer); ok {
		cfg := c.DTOConfig()
		m.InputNaming, m.OutputNaming = cfg.InputNaming, cfg.OutputNaming
		m.Wrap, m.Wrapped = cfg.Wrap, cfg.Wrapped || cfg.Wrap != ""
	}
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous || !sf.IsExported() || !directlyReachable(t, sf.Index) {
			continue
		}
		f, skip, err := fieldMeta(t, sf)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if _, dup := m.byName[f.Name]; dup {
			return nil, definitionError(t, f.Name, "duplicate property name")
		}
		m.byName[f.Name] = len(m.Fields)
		m.Fields = append(m.Fields, f)
	}
	if cp, ok := reflect.New(t).Interface().(ComputedProvider); ok {
		for _, c := range cp.ComputedFields() {
			cm, err := computedMeta(t, c)
			if err != nil {
				return nil, err
			}
			m.Computed = append(m.Computed, cm)
		}
	}
	return m, nil
}

// directlyReachable rejects fields promoted through embedded pointers.
func directlyReachable(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		t = t.Field(i).Type
		if t.Kind() != reflect.Struct {
			return false
		}
	}
	return true
}

// fieldTag holds the parsed options of a dto struct tag.
type fieldTag struct {
	name, source, target, cast, collection string
	def                                    string
	hasDefault                             bool
	optional, hidden, hiddenMap, hiddenJSON bool
	lazy                                   bool
	skip                                   bool
}

// parseTag reads `dto:"name=x,map=y,cast=decimal:2,optional,..."`. A comma
// segment that is neither key=value nor a known flag continues the previous
// value, so layouts such as "Jan 2, 2006" survive.
func parseTag(raw string) (fieldTag, error) {
	var ft fieldTag
	if strings.TrimSpace(raw) == "-" {
		ft.skip = true
		return ft, nil
	}
	var last *string
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if key, val, ok := strings.Cut(p, "="); ok {
			switch strings.TrimSpace(key) {
			case "name":
				last = &ft.name
			case "map":
				last = &ft.source
			case "out":
				last = &ft.target
			case "cast":
				last = &ft.cast
			case "collection":
				last = &ft.collection
			case "default":
				last = &ft.def
				ft.hasDefault = true
			default:
				return ft, fmt.Errorf("unknown tag option %q", key)
			}
			*last = strings.TrimSpace(val)
			continue
		}
		switch p {
		case "optional":
			ft.optional = true
		case "hidden":
			ft.hidden = true
		case "hidden_map":
			ft.hiddenMap = true
		case "hidden_json":
			ft.hiddenJSON = true
		case "lazy":
			ft.lazy = true
		default:
			if last == nil {
				return ft, fmt.Errorf("unknown tag flag %q", p)
			}
			*last += "," + part
			continue
		}
		last = nil
	}
	return ft, nil
}

// propertyName applies the key priority: dto name= > json tag name > the
// field name with its leading capitals lowered.
func propertyName(sf reflect.StructField, tagName string) (string, bool) {
	if tagName != "" {
		return tagName, true
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "", false
		}
		if name, _, _ := strings.Cut(jt, ","); name != "" {
			return name, true
		}
	}
	return naming.GoFieldToProperty(sf.Name), true
}

func fieldMeta(t reflect.Type, sf reflect.StructField) (FieldMeta, bool, error) {
	tag, err := parseTag(sf.Tag.Get("dto"))
	if err != nil {
		return FieldMeta{}, false, definitionError(t, sf.Name, err.Error())
	}
	if tag.skip {
		return FieldMeta{}, true, nil
	}
	name, ok := propertyName(sf, tag.name)
	if !ok {
		return FieldMeta{}, true, nil
	}
	ft := sf.Type
	f := FieldMeta{
		Name:           name,
		GoName:         sf.Name,
		Index:          sf.Index,
		Type:           ft,
		Mixed:          ft.Kind() == reflect.Interface,
		Nullable:       tag.optional || ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Interface,
		Source:         tag.source,
		Target:         tag.target,
		Collection:     tag.collection,
		Rules:          sf.Tag.Get("validate"),
		Hidden:         tag.hidden,
		HiddenFromMap:  tag.hiddenMap,
		HiddenFromJSON: tag.hiddenJSON,
		Lazy:           tag.lazy,
	}
	if !f.Mixed && !isOpaque(derefType(ft)) {
		f.Kind = coerce.KindOf(ft)
	}
	if tag.cast != "" {
		f.Cast = cast.ParseSpec(tag.cast)
	}
	if err := resolveCollection(&f); err != nil {
		return f, false, definitionError(t, name, err.Error())
	}
	if tag.hasDefault {
		def, err := defaultValue(&f, tag.def)
		if err != nil {
			return f, false, definitionError(t, name, "bad default: "+err.Error())
		}
		f.HasDefault, f.Default = true, def
	}
	if src := strings.TrimSpace(sf.Tag.Get("when")); src != "" {
		prog, err := expr.Compile(src, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return f, false, definitionError(t, name, "bad when expression: "+err.Error())
		}
		f.When, f.WhenSource, f.Lazy = prog, src, true
	}
	return f, false, nil
}

// resolveCollection reconciles the collection= shorthand with a collection
// cast token and infers a cast for *Collection[T] fields.
func resolveCollection(f *FieldMeta) error {
	if f.Collection != "" {
		switch {
		case f.Cast.IsZero():
			f.Cast = cast.ParseSpec("collection:" + f.Collection)
		case f.Cast.Name != collectionCastName:
			return fmt.Errorf("collection=%s conflicts with cast %q", f.Collection, f.Cast.Token)
		default:
			if _, target := collectionArgs(f.Cast); target != "" && target != f.Collection {
				return fmt.Errorf("collection=%s conflicts with cast %q", f.Collection, f.Cast.Token)
			}
		}
	}
	if f.Cast.IsZero() && f.Type.Implements(sinkType) {
		f.Cast = cast.ParseSpec(collectionCastName)
	}
	if f.Cast.Name == collectionCastName {
		f.Kind = coerce.Invalid
	}
	return nil
}

func defaultValue(f *FieldMeta, literal string) (any, error) {
	if f.Kind == coerce.Invalid {
		return literal, nil
	}
	if f.Kind == coerce.Array && literal == "" {
		return []any{}, nil
	}
	return coerce.To(f.Kind, literal)
}

func computedMeta(t reflect.Type, c Computed) (ComputedMeta, error) {
	cm := ComputedMeta{Method: c.Method, Key: c.Key, Lazy: c.Lazy, Cache: c.Cache, keyed: c.Key != ""}
	if !cm.keyed {
		cm.Key = naming.GoFieldToProperty(c.Method)
	}
	method, ok := reflect.PointerTo(t).MethodByName(c.Method)
	if !ok {
		return cm, definitionError(t, cm.Key, fmt.Sprintf("computed method %s not found", c.Method))
	}
	mt := method.Type
	errType := reflect.TypeFor[error]()
	switch {
	case mt.NumIn() != 1:
		return cm, definitionError(t, cm.Key, fmt.Sprintf("computed method %s must take no arguments", c.Method))
	case mt.NumOut() == 1:
	case mt.NumOut() == 2 && mt.Out(1) == errType:
		cm.withErr = true
	default:
		return cm, definitionError(t, cm.Key, fmt.Sprintf("computed method %s must return R or (R, error)", c.Method))
	}
	cm.fn = method.Func
	return cm, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

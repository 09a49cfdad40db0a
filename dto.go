package godto

import (
	"reflect"
	"strings"
)

// DTO wraps a constructed value of T with its output view configuration and
// a private computed-value cache. A DTO is never modified after
// construction: view methods return a new DTO sharing the same value, with
// its own view and an empty computed cache.
type DTO[T any] struct {
	ptr   *T
	meta  *TypeMeta
	p     *pipeline
	view  viewConfig
	cache *computedCache
}

func newDTO[T any](ptr *T, meta *TypeMeta, p *pipeline) *DTO[T] {
	return &DTO[T]{ptr: ptr, meta: meta, p: p, cache: newComputedCache()}
}

// Of wraps an already constructed value without running the input pipeline.
func Of[T any](v T, opts ...LoadOpt) (*DTO[T], error) {
	return wrapValue(newPipeline(lastOpt(opts)), v)
}

func wrapValue[T any](p *pipeline, v T) (*DTO[T], error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, definitionError(t, "", "DTO types must be structs")
	}
	meta, err := p.resolver.Resolve(t)
	if err != nil {
		return nil, err
	}
	ptr := new(T)
	*ptr = v
	return newDTO(ptr, meta, p), nil
}

// Value returns a copy of the wrapped struct. Slices and maps inside it
// share storage with the DTO and must not be modified.
func (d *DTO[T]) Value() T { return *d.ptr }

// Meta returns the resolved metadata of T.
func (d *DTO[T]) Meta() *TypeMeta { return d.meta }

// Get returns the value of a declared property by name.
func (d *DTO[T]) Get(prop string) (any, bool) {
	f, ok := d.meta.Field(prop)
	if !ok {
		return nil, false
	}
	return reflect.ValueOf(d.ptr).Elem().FieldByIndex(f.Index).Interface(), true
}

func (d *DTO[T]) dtoValue() any { return *d.ptr }

const (
	wrapDefault = iota // class-level Wrap applies
	wrapOn
	wrapOff
)

type viewConfig struct {
	include    map[string]bool
	includeAll bool
	only       map[string]bool // nil when inactive
	except     map[string]bool
	sortCmp    func(a, b string) int
	nestedSort bool
	wrapMode   int
	wrapKey    string
}

func (v viewConfig) clone() viewConfig {
	v.include = copySet(v.include)
	v.only = copySet(v.only)
	v.except = copySet(v.except)
	return v
}

func copySet(s map[string]bool) map[string]bool {
	if s == nil {
		return nil
	}
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func toSet(keys []string) map[string]bool {
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		out[k] = true
	}
	return out
}

func (v *viewConfig) lazyIncluded(names ...string) bool {
	if v == nil {
		return false
	}
	if v.includeAll {
		return true
	}
	for _, n := range names {
		if v.include[n] {
			return true
		}
	}
	return false
}

func (v *viewConfig) allows(key string) bool {
	if v == nil {
		return true
	}
	if v.only != nil && !v.only[key] {
		return false
	}
	return !v.except[key]
}

func (v *viewConfig) wrap(meta *TypeMeta) (string, bool) {
	switch v.wrapMode {
	case wrapOn:
		return v.wrapKey, true
	case wrapOff:
		return "", false
	}
	return meta.Wrap, meta.Wrapped
}

func (d *DTO[T]) with(fn func(v *viewConfig)) *DTO[T] {
	v := d.view.clone()
	fn(&v)
	return &DTO[T]{ptr: d.ptr, meta: d.meta, p: d.p, view: v, cache: newComputedCache()}
}

// Clone returns a copy with the same view. The copy always starts with an
// empty computed cache, even for values this instance already computed.
func (d *DTO[T]) Clone() *DTO[T] { return d.with(func(*viewConfig) {}) }

// Include adds lazy fields (declared or computed) to the output, by
// property name or output key.
func (d *DTO[T]) Include(names ...string) *DTO[T] {
	return d.with(func(v *viewConfig) {
		if v.include == nil {
			v.include = map[string]bool{}
		}
		for _, n := range names {
			v.include[n] = true
		}
	})
}

// IncludeAll includes every lazy field.
func (d *DTO[T]) IncludeAll() *DTO[T] {
	return d.with(func(v *viewConfig) { v.includeAll = true })
}

// Only restricts the output to the given output keys.
func (d *DTO[T]) Only(keys ...string) *DTO[T] {
	return d.with(func(v *viewConfig) { v.only = toSet(keys) })
}

// Except drops the given output keys.
func (d *DTO[T]) Except(keys ...string) *DTO[T] {
	return d.with(func(v *viewConfig) { v.except = toSet(keys) })
}

// Sorted orders the top-level output keys; Asc when dir is zero.
func (d *DTO[T]) Sorted(dir SortDirection) *DTO[T] {
	cmp := strings.Compare
	if dir == Desc {
		cmp = func(a, b string) int { return strings.Compare(b, a) }
	}
	return d.SortedBy(cmp)
}

// SortedBy orders the top-level output keys with cmp.
func (d *DTO[T]) SortedBy(cmp func(a, b string) int) *DTO[T] {
	return d.with(func(v *viewConfig) { v.sortCmp = cmp })
}

// Unsorted restores declaration order.
func (d *DTO[T]) Unsorted() *DTO[T] {
	return d.with(func(v *viewConfig) { v.sortCmp, v.nestedSort = nil, false })
}

// WithNestedSort applies the active sort to nested maps at every depth.
func (d *DTO[T]) WithNestedSort() *DTO[T] {
	return d.with(func(v *viewConfig) { v.nestedSort = true })
}

// Wrap nests the output under key. The empty key is a valid key.
func (d *DTO[T]) Wrap(key string) *DTO[T] {
	return d.with(func(v *viewConfig) { v.wrapMode, v.wrapKey = wrapOn, key })
}

// Unwrapped disables wrapping, including the class-level default.
func (d *DTO[T]) Unwrapped() *DTO[T] {
	return d.with(func(v *viewConfig) { v.wrapMode, v.wrapKey = wrapOff, "" })
}

// ClearComputedCache drops the memoized computed values of this instance.
func (d *DTO[T]) ClearComputedCache() { d.cache.clear() }

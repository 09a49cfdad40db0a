package godto

import (
	"reflect"
	"strconv"

	"github.com/reoring/godto/format"
	"github.com/reoring/godto/internal/coerce"
)

// Collection is an ordered sequence of DTOs of one type. Every element is a
// *DTO[T] at all times: maps are loaded through the input pipeline on
// admission and anything that is neither T, *T, *DTO[T] nor a map is
// rejected.
type Collection[T any] struct {
	items []*DTO[T]
	p     *pipeline
}

// NewCollection builds a collection from T, *T, *DTO[T] and
// map[string]any items, in order.
func NewCollection[T any](items ...any) (*Collection[T], error) {
	c := &Collection[T]{p: defaultPipeline()}
	if err := c.Append(items...); err != nil {
		return nil, err
	}
	return c, nil
}

// CollectionFromMaps loads every row through the input pipeline.
func CollectionFromMaps[T any](rows []map[string]any, opts ...LoadOpt) (*Collection[T], error) {
	opt := lastOpt(opts)
	p := newPipeline(opt)
	c := &Collection[T]{p: p}
	items := make([]any, len(rows))
	for i, row := range rows {
		items[i] = p.prepare(row, opt)
	}
	if err := c.Append(items...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection[T]) pipe() *pipeline {
	if c.p == nil {
		c.p = defaultPipeline()
	}
	return c.p
}

func (c *Collection[T]) label() string {
	return "Collection[" + typeLabel(reflect.TypeFor[T]()) + "]"
}

// Append admits items in order. When any item is rejected nothing is
// appended and the error names its index.
func (c *Collection[T]) Append(items ...any) error {
	admitted := make([]*DTO[T], 0, len(items))
	for i, it := range items {
		d, err := c.admit(it)
		if err != nil {
			idx := strconv.Itoa(i)
			if err.Code == CodeCollectionElement {
				e := *err
				e.Type, e.Property, e.Path = c.label(), idx, idx
				return &e
			}
			return nested(c.label(), idx, nil, err)
		}
		admitted = append(admitted, d)
	}
	c.items = append(c.items, admitted...)
	return nil
}

func (c *Collection[T]) admit(it any) (*DTO[T], *Error) {
	p := c.pipe()
	var (
		d   *DTO[T]
		err error
	)
	switch x := it.(type) {
	case *DTO[T]:
		if x != nil {
			return x, nil
		}
	case T:
		d, err = wrapValue(p, x)
	case *T:
		if x != nil {
			d, err = wrapValue(p, *x)
		}
	case map[string]any:
		d, err = load[T](p, x)
	}
	if err != nil {
		if de, ok := AsError(err); ok {
			return nil, de
		}
		return nil, &Error{Code: CodeCollectionElement, Reason: err.Error(), Cause: err}
	}
	if d == nil {
		name := typeLabel(reflect.TypeFor[T]())
		return nil, &Error{
			Code:     CodeCollectionElement,
			Type:     name,
			Expected: name,
			Actual:   coerce.TypeName(it),
			Preview:  preview(it),
		}
	}
	return d, nil
}

func (c *Collection[T]) elemType() reflect.Type { return reflect.TypeFor[T]() }

func (c *Collection[T]) admitAll(p *pipeline, items []any) error {
	c.p = p
	for i, it := range items {
		d, err := c.admit(it)
		if err != nil {
			return &collectionError{index: i, err: err}
		}
		c.items = append(c.items, d)
	}
	return nil
}

// Len returns the number of elements.
func (c *Collection[T]) Len() int { return len(c.items) }

// At returns the element at i, or nil when i is out of range.
func (c *Collection[T]) At(i int) *DTO[T] {
	if i < 0 || i >= len(c.items) {
		return nil
	}
	return c.items[i]
}

// First returns the first element, or nil.
func (c *Collection[T]) First() *DTO[T] { return c.At(0) }

// Last returns the last element, or nil.
func (c *Collection[T]) Last() *DTO[T] { return c.At(len(c.items) - 1) }

// Items returns the elements in order.
func (c *Collection[T]) Items() []*DTO[T] { return append([]*DTO[T](nil), c.items...) }

// Values returns copies of the wrapped structs in order.
func (c *Collection[T]) Values() []T {
	out := make([]T, len(c.items))
	for i, d := range c.items {
		out[i] = d.Value()
	}
	return out
}

// Each calls fn for every element in order.
func (c *Collection[T]) Each(fn func(i int, d *DTO[T])) {
	for i, d := range c.items {
		fn(i, d)
	}
}

// Filter returns a new collection with the elements fn accepts, in order.
func (c *Collection[T]) Filter(fn func(d *DTO[T]) bool) *Collection[T] {
	out := &Collection[T]{p: c.p}
	for _, d := range c.items {
		if fn(d) {
			out.items = append(out.items, d)
		}
	}
	return out
}

// Map returns a new collection of fn's results; nil results are dropped.
func (c *Collection[T]) Map(fn func(d *DTO[T]) *DTO[T]) *Collection[T] {
	out := &Collection[T]{p: c.p}
	for _, d := range c.items {
		if r := fn(d); r != nil {
			out.items = append(out.items, r)
		}
	}
	return out
}

// MapCollection projects every element with fn.
func MapCollection[T, R any](c *Collection[T], fn func(d *DTO[T]) R) []R {
	out := make([]R, len(c.items))
	for i, d := range c.items {
		out[i] = fn(d)
	}
	return out
}

// Reduce folds the elements in order.
func Reduce[T, A any](c *Collection[T], init A, fn func(acc A, d *DTO[T]) A) A {
	acc := init
	for _, d := range c.items {
		acc = fn(acc, d)
	}
	return acc
}

// ToMaps renders every element in the map context.
func (c *Collection[T]) ToMaps() ([]*Map, error) { return c.maps(false) }

// JSONMaps renders every element in the JSON context.
func (c *Collection[T]) JSONMaps() ([]*Map, error) { return c.maps(true) }

func (c *Collection[T]) maps(json bool) ([]*Map, error) {
	out := make([]*Map, len(c.items))
	for i, d := range c.items {
		m, err := d.render(json)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func (c *Collection[T]) renderAs(json bool) (any, error) {
	maps, err := c.maps(json)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out, nil
}

// MarshalJSON renders the collection as a JSON list.
func (c *Collection[T]) MarshalJSON() ([]byte, error) {
	list, err := c.renderAs(true)
	if err != nil {
		return nil, err
	}
	s, err := format.EncodeJSON(list, format.JSONOptions{})
	return []byte(s), err
}

// ToJSON renders the collection as JSON text.
func (c *Collection[T]) ToJSON(opts ...format.JSONOptions) (string, error) {
	list, err := c.renderAs(true)
	if err != nil {
		return "", err
	}
	return format.EncodeJSON(list, lastOf(opts))
}

// ToCSV renders one row per element.
func (c *Collection[T]) ToCSV(opts ...format.CSVOptions) (string, error) {
	list, err := c.renderAs(false)
	if err != nil {
		return "", err
	}
	return format.EncodeCSV(list, lastOf(opts))
}

// ToYAML renders the collection as a YAML sequence.
func (c *Collection[T]) ToYAML(opts ...format.YAMLOptions) (string, error) {
	list, err := c.renderAs(false)
	if err != nil {
		return "", err
	}
	return format.EncodeYAML(list, lastOf(opts))
}

// ToXML renders the collection as repeated item elements.
func (c *Collection[T]) ToXML(opts ...format.XMLOptions) (string, error) {
	list, err := c.renderAs(false)
	if err != nil {
		return "", err
	}
	return format.EncodeXML(list, lastOf(opts))
}

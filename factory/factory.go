// Package factory generates DTOs populated with plausible fake data. Values
// are chosen from each property's cast, Go type, validate rules and name, and
// every generated map runs through the normal godto input pipeline.
package factory

import (
	"maps"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reoring/godto"
	"github.com/reoring/godto/cast"
)

// maxDepth bounds recursion through nested DTOs and lists.
const maxDepth = 4

// listLen is the length of generated lists and collections.
const listLen = 2

var (
	timeType    = reflect.TypeFor[time.Time]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
	decimalType = reflect.TypeFor[decimal.Decimal]()
)

// Factory builds DTOs of T. Seed and State return new factories; a Factory
// is not safe for concurrent use.
type Factory[T any] struct {
	faker *gofakeit.Faker
	state map[string]any
	opt   godto.LoadOpt
}

// New returns a randomly seeded factory. opts are passed to the input
// pipeline; the last one wins.
func New[T any](opts ...godto.LoadOpt) *Factory[T] {
	var opt godto.LoadOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return &Factory[T]{faker: gofakeit.New(0), opt: opt}
}

// Seed returns a factory producing a deterministic sequence.
func (f *Factory[T]) Seed(seed int64) *Factory[T] {
	return &Factory[T]{faker: gofakeit.New(seed), state: f.state, opt: f.opt}
}

// State returns a factory whose generated input always carries overrides,
// keyed by input key. Later states win over earlier ones.
func (f *Factory[T]) State(overrides map[string]any) *Factory[T] {
	state := make(map[string]any, len(f.state)+len(overrides))
	maps.Copy(state, f.state)
	maps.Copy(state, overrides)
	return &Factory[T]{faker: f.faker, state: state, opt: f.opt}
}

// Raw returns the generated input map without loading it. Properties with
// a default are left out so the default applies.
func (f *Factory[T]) Raw() (map[string]any, error) {
	meta, err := f.resolver().Resolve(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := f.raw(meta, 0)
	maps.Copy(out, f.state)
	return out, nil
}

// Make generates one DTO.
func (f *Factory[T]) Make() (*godto.DTO[T], error) {
	raw, err := f.Raw()
	if err != nil {
		return nil, err
	}
	return godto.FromMap[T](raw, f.opt)
}

// MakeMany generates a collection of n DTOs.
func (f *Factory[T]) MakeMany(n int) (*godto.Collection[T], error) {
	rows := make([]map[string]any, 0, n)
	for range n {
		raw, err := f.Raw()
		if err != nil {
			return nil, err
		}
		rows = append(rows, raw)
	}
	return godto.CollectionFromMaps[T](rows, f.opt)
}

func (f *Factory[T]) resolver() *godto.Resolver {
	if f.opt.Resolver != nil {
		return f.opt.Resolver
	}
	return godto.DefaultResolver()
}

func (f *Factory[T]) raw(meta *godto.TypeMeta, depth int) map[string]any {
	out := make(map[string]any, len(meta.Fields))
	for i := range meta.Fields {
		fm := &meta.Fields[i]
		if fm.HasDefault {
			continue
		}
		out[meta.InputKey(fm)] = f.value(fm, depth)
	}
	return out
}

func (f *Factory[T]) value(fm *godto.FieldMeta, depth int) any {
	if !fm.Cast.IsZero() {
		if v, ok := f.castValue(fm, depth); ok {
			return v
		}
	}
	return f.typed(fm.Type, fm.Name, fm.Rules, depth)
}

func (f *Factory[T]) castValue(fm *godto.FieldMeta, depth int) (any, bool) {
	fk := f.faker
	switch fm.Cast.Name {
	case "datetime":
		layout := fm.Cast.Arg
		if layout == "" {
			layout = time.RFC3339
		}
		return fk.Date().UTC().Format(layout), true
	case "decimal":
		return strconv.FormatFloat(fk.Price(1, 1000), 'f', 2, 64), true
	case "boolean":
		return fk.Bool(), true
	case "integer":
		return fk.Number(1, 100), true
	case "float":
		return round2(fk.Float64Range(1, 100)), true
	case "string":
		return f.text(fm.Name, fm.Rules), true
	case "uuid":
		return fk.UUID(), true
	case "hashed":
		return fk.Password(true, true, true, false, false, 12), true
	case "enum":
		s := fm.Cast
		s.Target = fm.Type
		cases, err := cast.Cases(s)
		if err != nil || len(cases) == 0 {
			return nil, false
		}
		return cast.Backing(cases[fk.Number(0, len(cases)-1)]), true
	case "collection":
		elem := collectionElem(fm)
		if elem == nil || depth >= maxDepth {
			return []any{}, true
		}
		list := make([]any, listLen)
		for i := range list {
			list[i] = f.typed(elem, fm.Name, "", depth+1)
		}
		return list, true
	}
	return nil, false
}

// collectionElem finds the element type of a collection property from its
// registered target name or its Go type.
func collectionElem(fm *godto.FieldMeta) reflect.Type {
	name := fm.Collection
	if name == "" {
		args := fm.Cast.Args()
		if n := len(args); n > 0 && args[n-1] != godto.DriverSequence && args[n-1] != godto.DriverSlice {
			name = args[n-1]
		}
	}
	if name != "" {
		if t, ok := godto.Registered(name); ok {
			return t
		}
	}
	t := fm.Type
	if t.Kind() == reflect.Slice {
		return t.Elem()
	}
	if m, ok := t.MethodByName("Values"); ok && m.Type.NumOut() == 1 && m.Type.Out(0).Kind() == reflect.Slice {
		return m.Type.Out(0).Elem()
	}
	return nil
}

func (f *Factory[T]) typed(t reflect.Type, name, rules string, depth int) any {
	fk := f.faker
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return fk.Date().UTC().Format(time.RFC3339)
	case uuidType:
		return fk.UUID()
	case decimalType:
		return strconv.FormatFloat(fk.Price(1, 1000), 'f', 2, 64)
	}
	switch t.Kind() {
	case reflect.String:
		return f.text(name, rules)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fk.Number(1, 100)
	case reflect.Float32, reflect.Float64:
		return round2(fk.Float64Range(1, 100))
	case reflect.Bool:
		return fk.Bool()
	case reflect.Interface:
		return fk.Word()
	case reflect.Map:
		return map[string]any{}
	case reflect.Slice, reflect.Array:
		if depth >= maxDepth {
			return []any{}
		}
		list := make([]any, listLen)
		for i := range list {
			list[i] = f.typed(t.Elem(), name, "", depth+1)
		}
		return list
	case reflect.Struct:
		if depth >= maxDepth {
			return nil
		}
		meta, err := f.resolver().Resolve(t)
		if err != nil {
			return nil
		}
		return f.raw(meta, depth+1)
	}
	return nil
}

// text picks a string generator from validate rules, then from the
// property name.
func (f *Factory[T]) text(name, rules string) string {
	fk := f.faker
	switch {
	case hasRule(rules, "email"):
		return fk.Email()
	case hasRule(rules, "uuid"), hasRule(rules, "uuid4"):
		return fk.UUID()
	case hasRule(rules, "url"):
		return fk.URL()
	}
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "email"):
		return fk.Email()
	case strings.Contains(n, "uuid"):
		return fk.UUID()
	case strings.Contains(n, "url"), strings.Contains(n, "website"):
		return fk.URL()
	case strings.Contains(n, "password"):
		return fk.Password(true, true, true, false, false, 12)
	case strings.Contains(n, "firstname"), strings.Contains(n, "first_name"):
		return fk.FirstName()
	case strings.Contains(n, "lastname"), strings.Contains(n, "last_name"):
		return fk.LastName()
	case strings.Contains(n, "username"):
		return fk.Username()
	case strings.Contains(n, "company"):
		return fk.Company()
	case strings.Contains(n, "name"):
		return fk.Name()
	case strings.Contains(n, "phone"):
		return fk.Phone()
	case strings.Contains(n, "city"):
		return fk.City()
	case strings.Contains(n, "country"):
		return fk.Country()
	case strings.Contains(n, "street"), strings.Contains(n, "address"):
		return fk.Street()
	case strings.Contains(n, "zip"), strings.Contains(n, "postal"):
		return fk.Zip()
	case strings.Contains(n, "title"):
		return fk.Sentence(3)
	case strings.Contains(n, "description"), strings.Contains(n, "bio"),
		strings.Contains(n, "note"), strings.Contains(n, "comment"):
		return fk.Sentence(8)
	}
	return fk.Word()
}

func hasRule(rules, rule string) bool {
	for _, r := range strings.Split(rules, ",") {
		if tag, _, _ := strings.Cut(strings.TrimSpace(r), "="); tag == rule {
			return true
		}
	}
	return false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

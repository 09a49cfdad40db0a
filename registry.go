package godto

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/reoring/godto/cast"
	"github.com/reoring/godto/internal/coerce"
)

const collectionCastName = "collection"

// Collection drivers select the envelope built by the collection cast.
const (
	DriverSequence = "sequence" // *Collection[T]
	DriverSlice    = "slice"    // []T
)

// collectionSink is implemented by *Collection[T]; the collection cast
// fills a fresh one through it.
type collectionSink interface {
	elemType() reflect.Type
	admitAll(p *pipeline, items []any) error
}

var sinkType = reflect.TypeFor[collectionSink]()

type collectionTarget struct {
	typ    reflect.Type
	newSeq func() collectionSink
}

var (
	targetsMu sync.RWMutex
	targets   = map[string]collectionTarget{}
)

// Register makes T available to collection casts as "collection:<name>".
// An empty name registers T under its type name.
func Register[T any](name string) {
	t := reflect.TypeFor[T]()
	if name == "" {
		name = typeLabel(t)
	}
	targetsMu.Lock()
	targets[name] = collectionTarget{typ: t, newSeq: func() collectionSink { return &Collection[T]{} }}
	targetsMu.Unlock()
}

// Registered reports the type registered under name.
func Registered(name string) (reflect.Type, bool) {
	ct, ok := registeredTarget(name)
	return ct.typ, ok
}

func registeredTarget(name string) (collectionTarget, bool) {
	targetsMu.RLock()
	ct, ok := targets[name]
	targetsMu.RUnlock()
	return ct, ok
}

func init() { cast.Default().Register(collectionCastName, collectionCast{}) }

// collectionArgs splits "collection[:driver][:Name]" into its parts.
func collectionArgs(s cast.Spec) (driver, target string) {
	args := s.Args()
	switch len(args) {
	case 0:
		return "", ""
	case 1:
		if isDriver(args[0]) {
			return args[0], ""
		}
		return "", args[0]
	default:
		return args[0], strings.Join(args[1:], ":")
	}
}

func isDriver(s string) bool { return s == DriverSequence || s == DriverSlice }

// collectionError carries the index of a rejected element out of the cast.
type collectionError struct {
	index int
	err   *Error
}

func (e *collectionError) Error() string { return fmt.Sprintf("element %d: %v", e.index, e.err) }
func (e *collectionError) Unwrap() error { return e.err }

// collectionCast builds typed collections of DTOs from lists of maps and
// renders them back as lists of maps.
type collectionCast struct{}

func configError(s cast.Spec, reason string) *Error {
	return &Error{Code: CodeCollectionConfig, Cast: s.Token, Reason: reason}
}

// plan resolves the element type and envelope of a collection cast.
func (collectionCast) plan(s cast.Spec) (elem reflect.Type, driver string, seq func() collectionSink, err error) {
	driver, name := collectionArgs(s)
	target := s.Target
	if target != nil && target.Implements(sinkType) {
		tt := target
		seq = func() collectionSink { return reflect.New(tt.Elem()).Interface().(collectionSink) }
		elem = seq().elemType()
	} else if target != nil && target.Kind() == reflect.Slice && derefType(target.Elem()).Kind() == reflect.Struct {
		elem = derefType(target.Elem())
	}
	if name != "" {
		ct, ok := registeredTarget(name)
		if !ok {
			return nil, "", nil, configError(s, fmt.Sprintf("target %q is not registered", name))
		}
		if elem != nil && elem != ct.typ {
			return nil, "", nil, configError(s, fmt.Sprintf("target %q does not match element type %s", name, typeLabel(elem)))
		}
		elem = ct.typ
		if seq == nil {
			seq = ct.newSeq
		}
	}
	if elem == nil {
		return nil, "", nil, configError(s, "a target DTO type is required")
	}
	if driver == "" {
		driver = DriverSequence
		if target != nil && target.Kind() == reflect.Slice {
			driver = DriverSlice
		}
	}
	switch driver {
	case DriverSequence:
		if seq == nil {
			return nil, "", nil, configError(s, "the sequence driver needs a registered target or a *Collection field")
		}
	case DriverSlice:
	default:
		return nil, "", nil, configError(s, fmt.Sprintf("unknown driver %q", driver))
	}
	return elem, driver, seq, nil
}

func (c collectionCast) ToProperty(v any, s cast.Spec) (any, error) {
	p, _ := s.Env.(*pipeline)
	if p == nil {
		p = defaultPipeline()
	}
	elem, driver, seq, err := c.plan(s)
	if err != nil {
		return nil, err
	}
	if s.Target != nil && reflect.TypeOf(v) == s.Target {
		return v, nil
	}
	if sink, ok := v.(collectionSink); ok && driver == DriverSequence && sink.elemType() == elem {
		return v, nil
	}
	items, ok := asAnySlice(v)
	if !ok {
		return nil, &cast.Error{Token: s.Token, Value: v, Reason: "expected a list of " + typeLabel(elem)}
	}
	if driver == DriverSequence {
		sink := seq()
		if err := sink.admitAll(p, items); err != nil {
			return nil, err
		}
		return sink, nil
	}
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(items))
	for i, it := range items {
		ev, err := p.element(elem, it)
		if err != nil {
			return nil, &collectionError{index: i, err: err}
		}
		out = reflect.Append(out, ev)
	}
	return out.Interface(), nil
}

func (collectionCast) ToOutput(v any, s cast.Spec) (any, error) {
	env, _ := s.Env.(*renderEnv)
	if env == nil {
		env = &renderEnv{p: defaultPipeline()}
	}
	return env.p.plainValue(v, env.json)
}

// element converts one collection item into a value of elem: maps run
// through the input pipeline, DTOs and (pointers to) elem are unwrapped.
func (p *pipeline) element(elem reflect.Type, it any) (reflect.Value, *Error) {
	if m, ok := it.(map[string]any); ok {
		ptr, _, err := p.build(elem, m)
		if err != nil {
			if de, ok := AsError(err); ok {
				return reflect.Value{}, de
			}
			return reflect.Value{}, &Error{Code: CodeCollectionElement, Type: typeLabel(elem), Reason: err.Error(), Cause: err}
		}
		return ptr.Elem(), nil
	}
	if dv, ok := it.(dtoValuer); ok {
		it = dv.dtoValue()
	}
	rv := reflect.ValueOf(it)
	if rv.IsValid() && rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.IsValid() && rv.Type() == elem {
		return rv, nil
	}
	return reflect.Value{}, &Error{
		Code:     CodeCollectionElement,
		Type:     typeLabel(elem),
		Expected: typeLabel(elem),
		Actual:   coerce.TypeName(it),
		Preview:  preview(it),
	}
}

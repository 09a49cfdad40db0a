// Package cast provides the bidirectional value casts applied to DTO
// properties: ToProperty on the way in, ToOutput on the way out.
//
// A cast is declared with a token of the form "name[:arg]", for example
// "datetime:2006-01-02", "decimal:2", "hashed:argon2id" or "enum".
// nil values pass through both directions without reaching the caster.
package cast

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/reoring/godto/internal/coerce"
)

// Spec is a parsed cast declaration.
type Spec struct {
	Token  string       // original token, e.g. "decimal:2"
	Name   string       // "decimal"
	Arg    string       // everything after the first ':'
	Target reflect.Type // declared property type (may be nil)
	// Env is opaque pipeline state handed to casters that recurse into the
	// DTO pipeline (collection casts).
	Env any
}

// ParseSpec splits a token into name and argument.
func ParseSpec(token string) Spec {
	token = strings.TrimSpace(token)
	name, arg, _ := strings.Cut(token, ":")
	return Spec{Token: token, Name: strings.ToLower(strings.TrimSpace(name)), Arg: arg}
}

// Args splits Arg on ':' into trimmed parts.
func (s Spec) Args() []string {
	if s.Arg == "" {
		return nil
	}
	parts := strings.Split(s.Arg, ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// IsZero reports whether no cast is declared.
func (s Spec) IsZero() bool { return s.Name == "" }

// Caster transforms a property value in both directions.
type Caster interface {
	ToProperty(v any, s Spec) (any, error)
	ToOutput(v any, s Spec) (any, error)
}

// Funcs adapts two functions to Caster. A nil function is the identity.
type Funcs struct {
	In  func(v any, s Spec) (any, error)
	Out func(v any, s Spec) (any, error)
}

func (f Funcs) ToProperty(v any, s Spec) (any, error) {
	if f.In == nil {
		return v, nil
	}
	return f.In(v, s)
}

func (f Funcs) ToOutput(v any, s Spec) (any, error) {
	if f.Out == nil {
		return v, nil
	}
	return f.Out(v, s)
}

// Error reports a failed cast for a specific value.
type Error struct {
	Token  string
	Value  any
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cast %q failed for %s value", e.Token, coerce.TypeName(e.Value))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func fail(s Spec, v any, reason string, cause error) error {
	return &Error{Token: s.Token, Value: v, Reason: reason, Cause: cause}
}

// Registry maps cast names to casters.
type Registry struct {
	mu      sync.RWMutex
	casters map[string]Caster
}

// NewRegistry returns a registry preloaded with the built-in casts.
func NewRegistry() *Registry {
	r := &Registry{casters: map[string]Caster{}}
	r.Register("datetime", datetimeCast{})
	r.Register("date", datetimeCast{})
	r.Register("decimal", decimalCast{})
	r.Register("boolean", booleanCast{})
	r.Register("bool", booleanCast{})
	r.Register("integer", primitiveCast{kind: coerce.Int})
	r.Register("int", primitiveCast{kind: coerce.Int})
	r.Register("float", primitiveCast{kind: coerce.Float})
	r.Register("string", primitiveCast{kind: coerce.String})
	r.Register("array", jsonCast{structured: true})
	r.Register("json", jsonCast{})
	r.Register("enum", enumCast{})
	r.Register("hashed", hashedCast{})
	r.Register("uuid", uuidCast{})
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register installs or replaces a caster; nil casters are ignored.
func (r *Registry) Register(name string, c Caster) {
	if c == nil {
		return
	}
	r.mu.Lock()
	r.casters[strings.ToLower(name)] = c
	r.mu.Unlock()
}

// Lookup returns the caster registered under name.
func (r *Registry) Lookup(name string) (Caster, bool) {
	r.mu.RLock()
	c, ok := r.casters[strings.ToLower(name)]
	r.mu.RUnlock()
	return c, ok
}

// ToProperty runs the input transform declared by s.
func (r *Registry) ToProperty(s Spec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, ok := r.Lookup(s.Name)
	if !ok {
		return nil, fail(s, v, "unknown cast", nil)
	}
	return c.ToProperty(v, s)
}

// ToOutput runs the output transform declared by s.
func (r *Registry) ToOutput(s Spec, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	c, ok := r.Lookup(s.Name)
	if !ok {
		return nil, fail(s, v, "unknown cast", nil)
	}
	return c.ToOutput(v, s)
}

// deref unwraps non-nil pointers; nil pointers become nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func targetElem(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

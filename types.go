package godto

import (
	"github.com/reoring/godto/cast"
	"github.com/reoring/godto/naming"
)

// LoadOpt bundles input pipeline options. When several are passed the last
// one wins.
type LoadOpt struct {
	// Normalizers run in order over the input map before key resolution.
	Normalizers []Normalizer
	// Template remaps the input before normalization. String values of the
	// form "{{ dotted.path }}" are replaced by the value found at that path;
	// nested maps are processed recursively and other values kept literally.
	Template map[string]any
	// Filter is an allow-list of top-level input keys; empty keeps all.
	Filter []string
	// Resolver overrides the process-wide metadata cache.
	Resolver *Resolver
	// Registry overrides the process-wide cast registry.
	Registry *cast.Registry
}

func lastOpt(opts []LoadOpt) LoadOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return LoadOpt{}
}

// Config is the class-level policy of a DTO type.
type Config struct {
	InputNaming  naming.Convention // wire naming expected on input
	OutputNaming naming.Convention // naming applied to output keys
	// Wrap is the default envelope key. Wrapped enables it even when empty.
	Wrap    string
	Wrapped bool
}

// Configurer is implemented by DTO types carrying class-level policy.
// DTOConfig is called on the zero value.
type Configurer interface {
	DTOConfig() Config
}

// Computed declares a computed output field backed by a method on the DTO.
type Computed struct {
	Method string // method name; func() R or func() (R, error)
	Key    string // output key; derived from Method when empty
	Lazy   bool   // excluded unless included explicitly
	Cache  bool   // memoize per instance
}

// ComputedProvider is implemented by DTO types exposing computed fields.
// ComputedFields is called on the zero value.
type ComputedProvider interface {
	ComputedFields() []Computed
}

// SortDirection selects the key order of Sorted output.
type SortDirection int

const (
	Asc SortDirection = iota + 1
	Desc
)

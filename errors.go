package godto

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/reoring/godto/i18n"
	"github.com/reoring/godto/internal/coerce"
)

// Error codes.
const (
	CodeRequired          = "required"
	CodeInvalidType       = "invalid_type"
	CodeInvalidCast       = "invalid_cast"
	CodeNested            = "nested"
	CodeValidation        = "validation"
	CodeCollectionConfig  = "collection_config"
	CodeCollectionElement = "collection_element"
	CodeInvalidDefinition = "invalid_definition"
	CodeUnsupportedFormat = "unsupported_format"
)

// Error is the single error type returned by the input and output pipelines.
type Error struct {
	Code     string // One of the codes listed above.
	Type     string // DTO type the failing property belongs to.
	Property string // Property on Type.
	// Path is the dotted property path from the outermost DTO, e.g.
	// "address.city" or "items.2.name".
	Path string
	// Inner names the innermost DTO type for nested errors.
	Inner    string
	Expected string
	Actual   string // runtime type of the offending value
	Preview  string // bounded rendering of the offending value
	Cast     string // cast token, for invalid_cast
	Rule     string // failing validation rule
	Format   string // input format, for unsupported_format
	Reason   string
	// Suggestions lists at most three "did you mean" input keys.
	Suggestions []string
	// Hints are remediation suggestions.
	Hints []string
	Cause error
}

func (e *Error) Error() string {
	b := &strings.Builder{}
	b.WriteString("godto: ")
	if e.Type != "" {
		b.WriteString(e.Type)
		if e.Path != "" {
			b.WriteByte('.')
			b.WriteString(e.Path)
		}
		b.WriteString(": ")
	}
	e.writeDetail(b)
	return b.String()
}

// writeDetail writes the message without the type and path prefix. A nested
// error ends with the detail of its innermost cause.
func (e *Error) writeDetail(b *strings.Builder) {
	b.WriteString(i18n.T(e.Code, map[string]string{
		"property": e.Property,
		"expected": e.Expected,
		"actual":   e.Actual,
		"cast":     e.Cast,
		"rule":     e.Rule,
		"format":   e.Format,
	}))
	if e.Code == CodeNested {
		if e.Inner != "" {
			fmt.Fprintf(b, " (%s)", e.Inner)
		}
		if e.Cause != nil {
			b.WriteString(": ")
			leaf := e.Cause
			for {
				ie, ok := leaf.(*Error)
				if !ok || ie.Code != CodeNested || ie.Cause == nil {
					break
				}
				leaf = ie.Cause
			}
			if ie, ok := leaf.(*Error); ok {
				ie.writeDetail(b)
			} else {
				b.WriteString(leaf.Error())
			}
		}
		return
	}
	if e.Preview != "" {
		fmt.Fprintf(b, " (value: %s)", e.Preview)
	}
	if e.Reason != "" {
		b.WriteString("; ")
		b.WriteString(e.Reason)
	}
	if len(e.Suggestions) > 0 {
		b.WriteString("; did you mean: ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
	}
	if len(e.Hints) > 0 {
		b.WriteString("; hint: ")
		b.WriteString(strings.Join(e.Hints, "; "))
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts an *Error from err using errors.As.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// nested rebases inner under the outer property; sub holds element indexes
// between the property and the inner path.
func nested(outer, prop string, sub []string, inner *Error) *Error {
	parts := append([]string{prop}, sub...)
	if inner.Path != "" {
		parts = append(parts, inner.Path)
	}
	innerType := inner.Inner
	if innerType == "" {
		innerType = inner.Type
	}
	return &Error{
		Code:        CodeNested,
		Type:        outer,
		Property:    prop,
		Path:        strings.Join(parts, "."),
		Inner:       innerType,
		Expected:    inner.Expected,
		Actual:      inner.Actual,
		Preview:     inner.Preview,
		Suggestions: inner.Suggestions,
		Cause:       inner,
	}
}

const previewLimit = 50

// preview renders v for error messages: long strings are truncated, lists
// and maps show their size and structs show their type name.
func preview(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		if utf8.RuneCountInString(t) > previewLimit {
			r := []rune(t)
			return fmt.Sprintf("%q", string(r[:previewLimit])+"...")
		}
		return fmt.Sprintf("%q", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("array(%d items)", rv.Len())
	case reflect.Map:
		return fmt.Sprintf("map(%d items)", rv.Len())
	case reflect.Struct:
		return rv.Type().String()
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return rv.Type().String()
	}
	return fmt.Sprint(v)
}

const maxSuggestions = 3

// suggest ranks candidates by edit distance to key and returns the closest
// ones, at most three.
func suggest(key string, candidates []string) []string {
	if key == "" || len(candidates) == 0 {
		return nil
	}
	dmp := diffpatch.New()
	limit := len(key)/2 + 1
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	lk := strings.ToLower(key)
	for _, c := range candidates {
		if c == key {
			continue
		}
		lc := strings.ToLower(c)
		d := dmp.DiffLevenshtein(dmp.DiffMain(lk, lc, false))
		if d <= limit || (len(lc) >= 3 && len(lk) >= 3 && (strings.Contains(lc, lk) || strings.Contains(lk, lc))) {
			hits = append(hits, scored{c, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// typeHints proposes remediations for an invalid_type error.
func typeHints(expected string, v any, nullable bool) []string {
	var hints []string
	actual := coerce.TypeName(v)
	switch {
	case v == nil && !nullable:
		hints = append(hints, "make the property nullable (pointer type or the optional tag flag)")
	case actual == "string" && (expected == "int" || expected == "float" || expected == "bool"):
		hints = append(hints, fmt.Sprintf("cast the string to %s before loading, or declare cast=%s", expected, castFor(expected)))
	case actual == "map" || actual == "array":
		if expected != "array" && expected != "map" {
			hints = append(hints, fmt.Sprintf("convert the %s to %s through its own FromMap", actual, expected))
		}
	}
	return hints
}

func castFor(kind string) string {
	switch kind {
	case "int":
		return "integer"
	case "bool":
		return "boolean"
	}
	return kind
}

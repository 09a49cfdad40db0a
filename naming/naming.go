// Package naming converts property names between key conventions.
package naming

import (
	"strings"

	"github.com/stoewer/go-strcase"
)

// Convention is a key naming convention.
type Convention int

const (
	None Convention = iota // keep the name as declared
	Snake                  // first_name
	Camel                  // firstName
	Pascal                 // FirstName
	Kebab                  // first-name
)

func (c Convention) String() string {
	switch c {
	case Snake:
		return "snake"
	case Camel:
		return "camel"
	case Pascal:
		return "pascal"
	case Kebab:
		return "kebab"
	default:
		return "none"
	}
}

// Parse maps "snake", "snake_case", "camel", ... to a Convention.
func Parse(s string) Convention {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "snake", "snake_case":
		return Snake
	case "camel", "camelcase", "camel_case":
		return Camel
	case "pascal", "studly", "pascalcase":
		return Pascal
	case "kebab", "kebab-case":
		return Kebab
	default:
		return None
	}
}

// Apply converts name to the convention.
func (c Convention) Apply(name string) string {
	switch c {
	case Snake:
		return strcase.SnakeCase(name)
	case Camel:
		return strcase.LowerCamelCase(name)
	case Pascal:
		return strcase.UpperCamelCase(name)
	case Kebab:
		return strcase.KebabCase(name)
	default:
		return name
	}
}

// GoFieldToProperty derives the default property name from a Go field name:
// the leading upper-case run is lowered ("ID" -> "id", "URLPath" -> "urlPath").
func GoFieldToProperty(field string) string {
	r := []rune(field)
	n := 0
	for n < len(r) && r[n] >= 'A' && r[n] <= 'Z' {
		n++
	}
	switch {
	case n == 0:
		return field
	case n == 1 || n == len(r):
		return strings.ToLower(string(r[:n])) + string(r[n:])
	default:
		// keep the last capital: it starts the next word
		return strings.ToLower(string(r[:n-1])) + string(r[n-1:])
	}
}

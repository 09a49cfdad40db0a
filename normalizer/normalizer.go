// Package normalizer provides built-in input normalizers for the godto
// input pipeline. Every normalizer returns a fresh map; the argument is never
// modified.
package normalizer

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/reoring/godto"
	"github.com/reoring/godto/internal/coerce"
	"github.com/reoring/godto/internal/xlog"
	"github.com/reoring/godto/naming"
)

// TypeCoercion converts the listed keys to the named kinds ("int",
// "float", "bool", "string", "array"). Absent keys are skipped and values
// that cannot be converted are left as they are.
func TypeCoercion(kinds map[string]string) godto.Normalizer {
	parsed := make(map[string]coerce.Kind, len(kinds))
	for k, name := range kinds {
		parsed[k] = coerce.ParseKind(name)
	}
	return godto.NormalizerFunc(func(m map[string]any) map[string]any {
		out := copyMap(m)
		for key, kind := range parsed {
			v, ok := out[key]
			if !ok || v == nil || kind == coerce.Invalid {
				continue
			}
			cv, err := coerce.To(kind, v)
			if err != nil {
				xlog.L().Debug("type coercion skipped",
					zap.String("key", key),
					zap.Stringer("kind", kind),
					zap.Error(err),
				)
				continue
			}
			out[key] = cv
		}
		return out
	})
}

// Defaults fills absent or nil keys.
func Defaults(defaults map[string]any) godto.Normalizer {
	return godto.NormalizerFunc(func(m map[string]any) map[string]any {
		out := copyMap(m)
		for k, v := range defaults {
			if cur, ok := out[k]; !ok || cur == nil {
				out[k] = v
			}
		}
		return out
	})
}

// SnakeCase renames keys to snake_case at every depth.
func SnakeCase() godto.Normalizer { return Rename(naming.Snake) }

// CamelCase renames keys to camelCase at every depth.
func CamelCase() godto.Normalizer { return Rename(naming.Camel) }

// Rename applies c to every map key at every depth, including maps inside
// lists. When two keys collapse into one, the later key in sorted order wins.
func Rename(c naming.Convention) godto.Normalizer {
	return godto.NormalizerFunc(func(m map[string]any) map[string]any {
		return renameMap(m, c)
	})
}

func renameMap(m map[string]any, c naming.Convention) map[string]any {
	out := make(map[string]any, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out[c.Apply(k)] = renameValue(m[k], c)
	}
	return out
}

func renameValue(v any, c naming.Convention) any {
	switch t := v.(type) {
	case map[string]any:
		return renameMap(t, c)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = renameValue(t[i], c)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(t))
		for i := range t {
			out[i] = renameMap(t[i], c)
		}
		return out
	}
	return v
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}

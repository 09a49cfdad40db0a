package godto

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// applyTemplate builds a new input map from tmpl, resolving placeholders
// against src. A value that is exactly one placeholder keeps the type of
// the extracted value; placeholders embedded in text are interpolated.
// Unresolvable paths yield nil.
func applyTemplate(tmpl map[string]any, src map[string]any) map[string]any {
	out := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		out[k] = templateValue(v, src)
	}
	return out
}

func templateValue(v any, src map[string]any) any {
	switch t := v.(type) {
	case map[string]any:
		return applyTemplate(t, src)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = templateValue(t[i], src)
		}
		return out
	case string:
		if m := placeholderRe.FindStringSubmatchIndex(t); m != nil && m[0] == 0 && m[1] == len(t) {
			val, _ := lookupPath(src, t[m[2]:m[3]])
			return val
		}
		return placeholderRe.ReplaceAllStringFunc(t, func(ph string) string {
			path := placeholderRe.FindStringSubmatch(ph)[1]
			val, ok := lookupPath(src, path)
			if !ok || val == nil {
				return ""
			}
			return fmt.Sprint(val)
		})
	}
	return v
}

// lookupPath walks a dotted path through maps and lists (numeric segments
// index lists).
func lookupPath(src map[string]any, path string) (any, bool) {
	var cur any = src
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// filterKeys keeps only the allowed top-level keys.
func filterKeys(m map[string]any, allow []string) map[string]any {
	out := make(map[string]any, len(allow))
	for _, k := range allow {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

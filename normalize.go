package godto

// Normalizer transforms the raw input map before key resolution. It must not
// modify its argument in a way visible to the caller.
type Normalizer interface {
	Normalize(m map[string]any) map[string]any
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(m map[string]any) map[string]any

func (f NormalizerFunc) Normalize(m map[string]any) map[string]any { return f(m) }

// Normalize applies ns in order, each receiving the previous output. A nil
// result is treated as an empty map.
func Normalize(m map[string]any, ns ...Normalizer) map[string]any {
	for _, n := range ns {
		if n == nil {
			continue
		}
		m = n.Normalize(m)
		if m == nil {
			m = map[string]any{}
		}
	}
	return m
}

package format

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLOptions configures EncodeYAML.
type YAMLOptions struct {
	Indent int    // spaces per level; 2 when zero
	Wrap   string // optional envelope key
}

func decodeYAML(b []byte) (any, error) {
	var node any
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("format: empty YAML document")
	}
	return yamlNormalizeValue(node), nil
}

// yamlNormalizeValue converts YAML-decoded values (which may contain
// map[any]any) into JSON-like map[string]any recursively.
func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = yamlNormalizeValue(t[i])
		}
		return out
	default:
		return v
	}
}

// EncodeYAML renders v as YAML, keeping the key order of Ordered maps.
func EncodeYAML(v any, opt YAMLOptions) (string, error) {
	n, err := YAMLNode(wrapped(v, opt.Wrap))
	if err != nil {
		return "", err
	}
	indent := opt.Indent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(n); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// YAMLNode builds a yaml.Node tree for v; Ordered maps keep their key order.
func YAMLNode(v any) (*yaml.Node, error) {
	if o, ok := v.(Ordered); ok {
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range o.Keys() {
			val, _ := o.Get(k)
			vn, err := YAMLNode(val)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, vn)
		}
		return n, nil
	}
	if l, ok := v.([]any); ok {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range l {
			vn, err := YAMLNode(it)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, vn)
		}
		return n, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

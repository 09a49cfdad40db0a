package format

import (
	"bytes"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/godto/internal/coerce"
)

func decodeJSON(b []byte) (any, error) { return coerce.DecodeJSON(b) }

// JSONOptions configures EncodeJSON.
type JSONOptions struct {
	Indent int    // spaces per level; 0 renders compact JSON
	Wrap   string // optional envelope key
}

// EncodeJSON renders v as JSON text, keeping the key order of Ordered maps.
func EncodeJSON(v any, opt JSONOptions) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, wrapped(v, opt.Wrap)); err != nil {
		return "", err
	}
	if opt.Indent <= 0 {
		return buf.String(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", strings.Repeat(" ", opt.Indent)); err != nil {
		return "", err
	}
	return out.String(), nil
}

// MarshalOrdered renders an Ordered map as a JSON object in key order.
func MarshalOrdered(o Ordered) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	if o, ok := v.(Ordered); ok {
		buf.WriteByte('{')
		for i, k := range o.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			val, _ := o.Get(k)
			if err := writeJSON(buf, val); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}
	if l, ok := v.([]any); ok {
		buf.WriteByte('[')
		for i, it := range l {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, it); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

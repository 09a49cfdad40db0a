package format

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reoring/godto/internal/coerce"
)

// XMLOptions configures EncodeXML.
type XMLOptions struct {
	Root   string // root element name; "root" when empty
	Indent int    // spaces per level; 0 renders on one line
	Wrap   string // optional envelope element inside the root
}

// decodeXML reads the root element into a map. Repeated child elements become
// lists, attributes are stored under "@name" keys, and text-only elements
// become strings. The root element itself is dropped.
func decodeXML(b []byte) (any, error) {
	dec := xml.NewDecoder(bytes.NewReader(b))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("format: no XML root element")
			}
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			v, err := readElement(dec, se)
			if err != nil {
				return nil, err
			}
			if s, ok := v.(string); ok {
				if s == "" {
					return map[string]any{}, nil
				}
				return nil, errors.New("format: XML root holds only text")
			}
			return v, nil
		}
	}
}

func readElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	children := map[string]any{}
	hasChild := false
	for _, a := range start.Attr {
		children["@"+a.Name.Local] = a.Value
		hasChild = true
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			v, err := readElement(dec, t)
			if err != nil {
				return nil, err
			}
			name := t.Name.Local
			if existing, ok := children[name]; ok {
				if list, ok := existing.([]any); ok {
					children[name] = append(list, v)
				} else {
					children[name] = []any{existing, v}
				}
			} else {
				children[name] = v
			}
			hasChild = true
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if !hasChild {
				return strings.TrimSpace(text.String()), nil
			}
			return children, nil
		}
	}
}

// EncodeXML renders v (an Ordered map, map[string]any or list) as an XML
// document.
func EncodeXML(v any, opt XMLOptions) (string, error) {
	root := opt.Root
	if root == "" {
		root = "root"
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if opt.Indent > 0 {
		enc.Indent("", strings.Repeat(" ", opt.Indent))
	}
	v = wrapped(v, opt.Wrap)
	if l, ok := v.([]any); ok {
		v = &pair{key: "item", val: l}
	}
	if err := writeElement(enc, root, v); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeElement(enc *xml.Encoder, name string, v any) error {
	name = xmlName(name)
	if l, ok := v.([]any); ok {
		for _, it := range l {
			if err := writeElement(enc, name, it); err != nil {
				return err
			}
		}
		return nil
	}
	start := xml.StartElement{Name: xml.Name{Local: name}}
	keys, get, isMap := keysOf(v)
	if isMap {
		var childKeys []string
		for _, k := range keys {
			if strings.HasPrefix(k, "@") {
				s, err := coerce.ToString(get(k))
				if err != nil {
					s = fmt.Sprint(get(k))
				}
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: k[1:]}, Value: s})
				continue
			}
			childKeys = append(childKeys, k)
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		for _, k := range childKeys {
			if err := writeElement(enc, k, get(k)); err != nil {
				return err
			}
		}
		return enc.EncodeToken(start.End())
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if v != nil {
		s, err := coerce.ToString(v)
		if err != nil {
			s = fmt.Sprint(v)
		}
		if err := enc.EncodeToken(xml.CharData(s)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// xmlName maps keys that are not valid element names (empty or starting with
// a digit) to "item".
func xmlName(k string) string {
	if k == "" || (k[0] >= '0' && k[0] <= '9') {
		return "item"
	}
	return k
}

package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedStub is a minimal Ordered map for encoder tests.
type orderedStub struct {
	keys []string
	vals map[string]any
}

func newOrdered(kv ...any) *orderedStub {
	o := &orderedStub{vals: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		k := kv[i].(string)
		o.keys = append(o.keys, k)
		o.vals[k] = kv[i+1]
	}
	return o
}

func (o *orderedStub) Keys() []string { return o.keys }
func (o *orderedStub) Get(k string) (any, bool) {
	v, ok := o.vals[k]
	return v, ok
}

func TestDecodeMap_JSON(t *testing.T) {
	m, err := DecodeMap(JSON, []byte(`{"name":"John","age":30,"tags":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "John", "age": int64(30), "tags": []any{"a"}}, m)
}

func TestDecodeMap_MalformedYieldsEmptyMap(t *testing.T) {
	for _, f := range []string{JSON, XML, YAML, CSV} {
		m, err := DecodeMap(f, []byte("{{{ not valid <<<\n\"unterminated"))
		require.NoError(t, err, f)
		assert.Empty(t, m, f)
	}
}

func TestDecodeMap_XML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<user id="7">
  <name>John</name>
  <age>30</age>
  <tags><tag>a</tag><tag>b</tag></tags>
  <address><city>Oslo</city></address>
</user>`
	m, err := DecodeMap(XML, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "7", m["@id"])
	assert.Equal(t, "John", m["name"])
	assert.Equal(t, "30", m["age"])
	assert.Equal(t, map[string]any{"tag": []any{"a", "b"}}, m["tags"])
	assert.Equal(t, map[string]any{"city": "Oslo"}, m["address"])
}

func TestDecodeMap_YAML(t *testing.T) {
	doc := "name: John\nage: 30\naddress:\n  city: Oslo\n"
	m, err := DecodeMap(YAML, []byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "John", m["name"])
	assert.Equal(t, 30, m["age"])
	assert.Equal(t, map[string]any{"city": "Oslo"}, m["address"])
}

func TestDecodeList_CSV(t *testing.T) {
	doc := "name,age,address.city\nA,1,Oslo\nB,2,Rome\n"
	rows, err := DecodeList(CSV, []byte(doc))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"name": "A", "age": "1", "address": map[string]any{"city": "Oslo"}}, rows[0])
	assert.Equal(t, "B", rows[1]["name"])

	semi := DecodeCSV([]byte("a;b\n1;2\n"), CSVOptions{Delimiter: ';'})
	require.Len(t, semi, 1)
	assert.Equal(t, "2", semi[0]["b"])
}

func TestDecodeList_UnwrapsSingleListKey(t *testing.T) {
	rows, err := DecodeList(JSON, []byte(`{"data":[{"a":1},{"a":2}]}`))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = DecodeList(XML, []byte(`<users><user><n>a</n></user><user><n>b</n></user></users>`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1]["n"])
}

func TestSetDecoder_RemovesAndRestores(t *testing.T) {
	require.True(t, Supported(YAML))
	SetDecoder(YAML, nil)
	defer SetDecoder(YAML, DecoderFunc(decodeYAML))

	assert.False(t, Supported(YAML))
	_, err := DecodeMap(YAML, []byte("a: 1"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEncodeJSON_KeepsOrder(t *testing.T) {
	o := newOrdered("zebra", 1, "alpha", []any{newOrdered("b", true, "a", nil)})
	s, err := EncodeJSON(o, JSONOptions{})
	require.NoError(t, err)
	assert.Equal(t, `{"zebra":1,"alpha":[{"b":true,"a":null}]}`, s)

	s, err = EncodeJSON(o, JSONOptions{Wrap: "data"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, `{"data":{"zebra"`), s)

	s, err = EncodeJSON(newOrdered("a", 1), JSONOptions{Indent: 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", s)
}

func TestEncodeXML(t *testing.T) {
	o := newOrdered("@id", 7, "name", "John", "tags", []any{"a", "b"}, "address", newOrdered("city", "Oslo"))
	s, err := EncodeXML(o, XMLOptions{Root: "user"})
	require.NoError(t, err)
	assert.Contains(t, s, `<user id="7"><name>John</name><tags>a</tags><tags>b</tags><address><city>Oslo</city></address></user>`)

	// round trip through the decoder
	m, err := DecodeMap(XML, []byte(s))
	require.NoError(t, err)
	assert.Equal(t, "John", m["name"])
	assert.Equal(t, []any{"a", "b"}, m["tags"])

	s, err = EncodeXML([]any{newOrdered("n", 1)}, XMLOptions{Indent: 2, Wrap: "items"})
	require.NoError(t, err)
	assert.Contains(t, s, "<root>")
	assert.Contains(t, s, "<items>")
	assert.Contains(t, s, "<n>1</n>")
}

func TestEncodeYAML_KeepsOrder(t *testing.T) {
	o := newOrdered("zebra", 1, "alpha", newOrdered("inner", "x"))
	s, err := EncodeYAML(o, YAMLOptions{Indent: 4})
	require.NoError(t, err)
	assert.Equal(t, "zebra: 1\nalpha:\n    inner: x\n", s)

	s, err = EncodeYAML(newOrdered("a", 1), YAMLOptions{Wrap: "data"})
	require.NoError(t, err)
	assert.Equal(t, "data:\n  a: 1\n", s)
}

func TestEncodeCSV(t *testing.T) {
	rows := []any{
		newOrdered("name", "A", "age", 1, "address", newOrdered("city", "Oslo")),
		newOrdered("name", "B", "age", 2, "tags", []any{"x"}),
	}
	s, err := EncodeCSV(rows, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "name,age,address.city,tags\nA,1,Oslo,\nB,2,,\"[\"\"x\"\"]\"\n", s)

	s, err = EncodeCSV(newOrdered("a", 1), CSVOptions{NoHeader: true, Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, "1\n", s)

	s, err = EncodeCSV(newOrdered("a", 1), CSVOptions{Wrap: "data"})
	require.NoError(t, err)
	assert.Equal(t, "data.a\n1\n", s)

	_, err = EncodeCSV(42, CSVOptions{})
	assert.Error(t, err)
}

package godto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	long := strings.Repeat("x", 60)
	assert.Equal(t, `"`+strings.Repeat("x", 50)+`..."`, preview(long))
	assert.Equal(t, `"abc"`, preview("abc"))
	assert.Equal(t, "null", preview(nil))
	assert.Equal(t, "true", preview(true))
	assert.Equal(t, "42", preview(42))
	assert.Equal(t, "array(3 items)", preview([]any{1, 2, 3}))
	assert.Equal(t, "map(1 items)", preview(map[string]any{"a": 1}))
	type point struct{ X int }
	assert.Equal(t, "godto.point", preview(point{}))
	var p *point
	assert.Equal(t, "null", preview(p))
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"emial"}, suggest("email", []string{"age", "emial", "name"}))
	assert.Equal(t, []string{"userName"}, suggest("username", []string{"userName", "zzz"}))
	assert.Equal(t, []string{"address_line"}, suggest("address", []string{"address_line"}))
	assert.Nil(t, suggest("email", nil))
	assert.Empty(t, suggest("email", []string{"zzzzzzzz"}))
	assert.Len(t, suggest("ab", []string{"aa", "ab1", "ac", "ad", "ae"}), 3)
}

func TestError_Message(t *testing.T) {
	e := &Error{
		Code:        CodeRequired,
		Type:        "Contact",
		Property:    "email",
		Path:        "email",
		Suggestions: []string{"emial"},
	}
	assert.Equal(t, "godto: Contact.email: missing required property email; did you mean: emial", e.Error())

	inner := &Error{Code: CodeInvalidType, Type: "Address", Property: "zip", Path: "zip", Expected: "int", Actual: "string", Preview: `"x"`}
	n := nested("Person", "address", nil, inner)
	assert.Equal(t, "address.zip", n.Path)
	assert.Equal(t, "Address", n.Inner)
	assert.Equal(t, "int", n.Expected)
	assert.True(t, strings.HasPrefix(n.Error(), "godto: Person.address.zip: invalid nested value (Address): expected int, got string"))
	assert.Equal(t, 1, strings.Count(n.Error(), "godto:"))

	deeper := nested("Org", "people", []string{"2"}, n)
	assert.Equal(t, "people.2.address.zip", deeper.Path)
	assert.Equal(t, "Address", deeper.Inner)
	assert.True(t, strings.HasPrefix(deeper.Error(), "godto: Org.people.2.address.zip: invalid nested value (Address): expected int, got string"))
	assert.Equal(t, 1, strings.Count(deeper.Error(), "invalid nested value"))
}

func TestAsError(t *testing.T) {
	e := &Error{Code: CodeValidation}
	got, ok := AsError(errors.Join(errors.New("x"), e))
	require.True(t, ok)
	assert.Same(t, e, got)
	_, ok = AsError(nil)
	assert.False(t, ok)
	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
}

func TestTypeHints(t *testing.T) {
	assert.Equal(t, []string{"cast the string to int before loading, or declare cast=integer"}, typeHints("int", "x", false))
	assert.NotEmpty(t, typeHints("string", nil, false))
	assert.Empty(t, typeHints("string", nil, true))
}

func TestMap_Operations(t *testing.T) {
	m := NewMap()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	m.Delete("b")
	m.Delete("missing")
	assert.Equal(t, []string{"a"}, m.Keys())
	assert.Equal(t, 1, m.Len())

	keys := m.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestMap_SortKeysDeep(t *testing.T) {
	inner := NewMap()
	inner.Set("z", 1)
	inner.Set("c", 2)
	listed := NewMap()
	listed.Set("y", 1)
	listed.Set("b", 2)
	m := NewMap()
	m.Set("zeta", inner)
	m.Set("alpha", []any{listed})

	m.sortKeys(strings.Compare, false)
	assert.Equal(t, []string{"alpha", "zeta"}, m.Keys())
	assert.Equal(t, []string{"z", "c"}, inner.Keys())

	m.sortKeys(strings.Compare, true)
	assert.Equal(t, []string{"c", "z"}, inner.Keys())
	assert.Equal(t, []string{"b", "y"}, listed.Keys())
}

func TestMap_JSONAndPlain(t *testing.T) {
	inner := NewMap()
	inner.Set("k", "v")
	m := NewMap()
	m.Set("z", []any{inner})
	m.Set("a", nil)

	b, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":[{"k":"v"}],"a":null}`, string(b))
	assert.Equal(t, map[string]any{"z": []any{map[string]any{"k": "v"}}, "a": nil}, m.ToPlain())
}

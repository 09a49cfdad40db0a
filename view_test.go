package godto_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/godto"
	"github.com/reoring/godto/naming"
)

type Account struct {
	Name     string
	Password string `dto:"hidden"`
	Internal string `dto:"hidden_map"`
	Secret   string `dto:"hidden_json"`
}

type Profile struct {
	Name  string
	Age   int
	Bio   string `dto:"lazy,optional"`
	Adult string `dto:"optional" when:"age >= 18"`
}

type Letters struct {
	Zebra string
	Alpha string
	Beta  string
}

type Inner struct {
	Y string
	B string
}

type Outer struct {
	Zeta  Inner
	Alpha string
	List  []Inner `dto:"optional"`
}

type Envelope struct {
	ID int
}

func (Envelope) DTOConfig() godto.Config { return godto.Config{Wrap: "data"} }

type SnakeOut struct {
	FirstName string
	LastName  string
}

func (SnakeOut) DTOConfig() godto.Config {
	return godto.Config{InputNaming: naming.Snake, OutputNaming: naming.Snake}
}

func mustLoad[T any](t *testing.T, m map[string]any) *godto.DTO[T] {
	t.Helper()
	d, err := godto.FromMap[T](m)
	require.NoError(t, err)
	return d
}

// mapOf returns a helper that unwraps (*Map, error) results.
func mapOf(t *testing.T) func(*godto.Map, error) *godto.Map {
	return func(m *godto.Map, err error) *godto.Map {
		t.Helper()
		require.NoError(t, err)
		return m
	}
}

func TestHidden_PerContext(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Account](t, map[string]any{"name": "a", "password": "p", "internal": "i", "secret": "s"})
	assert.Equal(t, "p", d.Value().Password)

	assert.Equal(t, []string{"name", "secret"}, must(d.ToMap()).Keys())
	assert.Equal(t, []string{"name", "internal"}, must(d.JSONMap()).Keys())

	js, err := d.ToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"a","internal":"i"}`, js)
}

func TestLazy_IncludeAndIncludeAll(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Profile](t, map[string]any{"name": "kid", "age": 10, "bio": "hi"})
	assert.Equal(t, []string{"name", "age"}, must(d.ToMap()).Keys())
	assert.Equal(t, []string{"name", "age", "bio"}, must(d.Include("bio").ToMap()).Keys())
	assert.Equal(t, []string{"name", "age", "bio", "adult"}, must(d.IncludeAll().ToMap()).Keys())
}

func TestLazy_WhenExpression(t *testing.T) {
	must := mapOf(t)
	grown := mustLoad[Profile](t, map[string]any{"name": "a", "age": 30, "adult": "yes"})
	m := must(grown.ToMap())
	assert.Equal(t, []string{"name", "age", "adult"}, m.Keys())
	v, _ := m.Get("adult")
	assert.Equal(t, "yes", v)

	kid := mustLoad[Profile](t, map[string]any{"name": "b", "age": 17})
	assert.Equal(t, []string{"name", "age"}, must(kid.ToMap()).Keys())
	assert.Equal(t, []string{"name", "age", "adult"}, must(kid.Include("adult").ToMap()).Keys())
}

func TestView_IsImmutable(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Profile](t, map[string]any{"name": "kid", "age": 10, "bio": "hi"})
	inc := d.Include("bio")
	sorted := inc.Sorted(godto.Desc)
	only := sorted.Only("name")

	assert.Equal(t, []string{"name", "age"}, must(d.ToMap()).Keys())
	assert.Equal(t, []string{"name", "age", "bio"}, must(inc.ToMap()).Keys())
	assert.Equal(t, []string{"name", "bio", "age"}, must(sorted.ToMap()).Keys())
	assert.Equal(t, []string{"name"}, must(only.ToMap()).Keys())
	assert.Equal(t, d.Value(), only.Value())
}

func TestView_OnlyExcept(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Letters](t, map[string]any{"zebra": "z", "alpha": "a", "beta": "b"})
	assert.Equal(t, []string{"zebra", "beta"}, must(d.Only("beta", "zebra").ToMap()).Keys())
	assert.Equal(t, []string{"alpha", "beta"}, must(d.Except("zebra").ToMap()).Keys())
	assert.Equal(t, []string{"beta"}, must(d.Only("beta", "zebra").Except("zebra").ToMap()).Keys())
}

func TestSorted(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Letters](t, map[string]any{"zebra": "z", "alpha": "a", "beta": "b"})
	assert.Equal(t, []string{"zebra", "beta", "alpha"}, must(d.Sorted(godto.Desc).ToMap()).Keys())
	assert.Equal(t, []string{"alpha", "beta", "zebra"}, must(d.Sorted(godto.Asc).ToMap()).Keys())
	assert.Equal(t, []string{"zebra", "alpha", "beta"}, must(d.Sorted(godto.Asc).Unsorted().ToMap()).Keys())

	byLen := d.SortedBy(func(a, b string) int {
		if len(a) != len(b) {
			return len(a) - len(b)
		}
		return strings.Compare(a, b)
	})
	assert.Equal(t, []string{"beta", "alpha", "zebra"}, must(byLen.ToMap()).Keys())
}

func TestSorted_Nested(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[Outer](t, map[string]any{
		"zeta":  map[string]any{"y": "1", "b": "2"},
		"alpha": "a",
		"list":  []any{map[string]any{"y": "3", "b": "4"}},
	})

	flat := must(d.Sorted(godto.Asc).ToMap())
	assert.Equal(t, []string{"alpha", "list", "zeta"}, flat.Keys())
	zeta, _ := flat.Get("zeta")
	assert.Equal(t, []string{"y", "b"}, zeta.(*godto.Map).Keys())

	deep := must(d.Sorted(godto.Asc).WithNestedSort().ToMap())
	zeta, _ = deep.Get("zeta")
	assert.Equal(t, []string{"b", "y"}, zeta.(*godto.Map).Keys())
	list, _ := deep.Get("list")
	assert.Equal(t, []string{"b", "y"}, list.([]any)[0].(*godto.Map).Keys())
}

func TestWrap(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[User](t, map[string]any{"name": "a", "age": 1})

	m := must(d.Wrap("user").ToMap())
	assert.Equal(t, map[string]any{"user": map[string]any{"name": "a", "age": 1}}, m.ToPlain())

	m = must(d.Wrap("").ToMap())
	assert.Equal(t, []string{""}, m.Keys())

	e := mustLoad[Envelope](t, map[string]any{"id": "7"})
	assert.Equal(t, map[string]any{"data": map[string]any{"id": 7}}, must(e.ToMap()).ToPlain())
	assert.Equal(t, map[string]any{"id": 7}, must(e.Unwrapped().ToMap()).ToPlain())
	assert.Equal(t, map[string]any{"x": map[string]any{"id": 7}}, must(e.Wrap("x").ToMap()).ToPlain())

	js, err := e.ToJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"id":7}}`, js)
}

func TestNamingConventions(t *testing.T) {
	must := mapOf(t)
	d := mustLoad[SnakeOut](t, map[string]any{"first_name": "Ann", "last_name": "Lee"})
	assert.Equal(t, "Ann", d.Value().FirstName)
	assert.Equal(t, []string{"first_name", "last_name"}, must(d.ToMap()).Keys())

	_, err := godto.FromMap[SnakeOut](map[string]any{"firstName": "Ann", "last_name": "Lee"})
	e, ok := godto.AsError(err)
	require.True(t, ok)
	assert.Equal(t, godto.CodeRequired, e.Code)
	assert.Equal(t, "firstName", e.Property)
	assert.Contains(t, e.Reason, "first_name")
}

package godto_test

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/godto"
	"github.com/reoring/godto/naming"
)

var fullNameCalls atomic.Int64

type Named struct {
	First string
	Last  string
}

func (n *Named) FullName() string {
	fullNameCalls.Add(1)
	return n.First + " " + n.Last
}

func (n *Named) Broken() (string, error) { return "", errors.New("boom") }

func (n *Named) Panicky() string { panic("kaboom") }

func (n *Named) Initials() string { return n.First[:1] + n.Last[:1] }

func (n *Named) Parts() []string { return strings.Fields(n.First + " " + n.Last) }

func (Named) ComputedFields() []godto.Computed {
	return []godto.Computed{
		{Method: "FullName", Cache: true},
		{Method: "Broken"},
		{Method: "Panicky"},
		{Method: "Initials", Key: "ini", Lazy: true},
		{Method: "Parts", Lazy: true},
	}
}

var ticks atomic.Int64

type Ticket struct {
	Status string
	Title  string
}

// UpperStatus replaces the declared status property in the output.
func (t *Ticket) UpperStatus() string { return strings.ToUpper(t.Status) }

func (t *Ticket) Tick() int64 { return ticks.Add(1) }

func (Ticket) ComputedFields() []godto.Computed {
	return []godto.Computed{
		{Method: "UpperStatus", Key: "status"},
		{Method: "Tick"},
	}
}

type SnakeComputed struct {
	FirstName string
}

func (s *SnakeComputed) NameLength() int { return len(s.FirstName) }

func (s *SnakeComputed) Shout() string { return strings.ToUpper(s.FirstName) }

func (SnakeComputed) DTOConfig() godto.Config {
	return godto.Config{OutputNaming: naming.Snake}
}

func (SnakeComputed) ComputedFields() []godto.Computed {
	return []godto.Computed{
		{Method: "NameLength", Lazy: true},
		{Method: "Shout", Key: "loudName"},
	}
}

type BadComputed struct {
	Name string
}

func (BadComputed) ComputedFields() []godto.Computed {
	return []godto.Computed{{Method: "Missing"}}
}

func TestComputed_RenderedAfterDeclaredFields(t *testing.T) {
	d := mustLoad[Named](t, map[string]any{"first": "Ann", "last": "Lee"})
	m, err := d.ToMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "last", "fullName", "broken", "panicky"}, m.Keys())
	assert.Equal(t, map[string]any{
		"first":    "Ann",
		"last":     "Lee",
		"fullName": "Ann Lee",
		"broken":   nil,
		"panicky":  nil,
	}, m.ToPlain())
}

func TestComputed_LazyAndExplicitKey(t *testing.T) {
	d := mustLoad[Named](t, map[string]any{"first": "Ann", "last": "Lee"})
	m, err := d.Include("ini").Only("ini", "parts").ToMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ini": "AL"}, m.ToPlain())

	m, err = d.Include("Parts").Only("parts").ToMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"parts": []any{"Ann", "Lee"}}, m.ToPlain())
}

func TestComputed_CachePerInstance(t *testing.T) {
	d := mustLoad[Named](t, map[string]any{"first": "Ann", "last": "Lee"})
	start := fullNameCalls.Load()

	_, err := d.ToMap()
	require.NoError(t, err)
	_, err = d.JSONMap()
	require.NoError(t, err)
	assert.Equal(t, int64(1), fullNameCalls.Load()-start)

	view := d.Sorted(godto.Asc)
	_, err = view.ToMap()
	require.NoError(t, err)
	assert.Equal(t, int64(2), fullNameCalls.Load()-start, "views start with an empty cache")

	d.ClearComputedCache()
	_, err = d.ToMap()
	require.NoError(t, err)
	assert.Equal(t, int64(3), fullNameCalls.Load()-start)

	_, err = d.Clone().ToMap()
	require.NoError(t, err)
	assert.Equal(t, int64(4), fullNameCalls.Load()-start)
}

func TestComputed_UncachedIsEvaluatedOnEveryRead(t *testing.T) {
	d := mustLoad[Ticket](t, map[string]any{"status": "open", "title": "x"})
	start := ticks.Load()
	for i := 1; i <= 3; i++ {
		_, err := d.ToMap()
		require.NoError(t, err)
		assert.Equal(t, int64(i), ticks.Load()-start)
	}
}

func TestComputed_KeyOverridesDeclaredProperty(t *testing.T) {
	d := mustLoad[Ticket](t, map[string]any{"status": "open", "title": "x"})
	m, err := d.ToMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "title", "tick"}, m.Keys())
	v, _ := m.Get("status")
	assert.Equal(t, "OPEN", v)
	assert.Equal(t, "open", d.Value().Status)
}

func TestComputed_ExplicitKeySkipsOutputNaming(t *testing.T) {
	d := mustLoad[SnakeComputed](t, map[string]any{"firstName": "ann"})
	m, err := d.ToMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "loudName"}, m.Keys())

	m, err = d.Include("name_length").ToMap()
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "name_length", "loudName"}, m.Keys())
	v, _ := m.Get("name_length")
	assert.Equal(t, 3, v)
}

func TestComputed_MissingMethodIsDefinitionError(t *testing.T) {
	_, err := godto.FromMap[BadComputed](map[string]any{"name": "x"})
	e, ok := godto.AsError(err)
	require.True(t, ok)
	assert.Equal(t, godto.CodeInvalidDefinition, e.Code)
	assert.Contains(t, e.Reason, "Missing")
}

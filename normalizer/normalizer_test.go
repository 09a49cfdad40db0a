package normalizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/godto"
	"github.com/reoring/godto/normalizer"
)

type row struct {
	FirstName string
}

type sheet struct {
	Rows []row
}

type signup struct {
	FirstName string
	Age       int
	Active    bool
	Country   string
}

func TestTypeCoercion(t *testing.T) {
	in := map[string]any{"age": "30", "active": "yes", "score": "n/a"}
	out := normalizer.TypeCoercion(map[string]string{
		"age":     "int",
		"active":  "bool",
		"score":   "float",
		"missing": "int",
	}).Normalize(in)

	assert.Equal(t, int64(30), out["age"])
	assert.Equal(t, true, out["active"])
	assert.Equal(t, "n/a", out["score"])
	assert.NotContains(t, out, "missing")
	assert.Equal(t, "30", in["age"])
}

func TestDefaults(t *testing.T) {
	in := map[string]any{"country": nil, "age": 3}
	out := normalizer.Defaults(map[string]any{"country": "JP", "age": 18, "active": true}).Normalize(in)
	assert.Equal(t, map[string]any{"country": "JP", "age": 3, "active": true}, out)
	assert.Nil(t, in["country"])
	assert.NotContains(t, in, "active")
}

func TestSnakeAndCamelCase(t *testing.T) {
	in := map[string]any{
		"firstName": "Ann",
		"homeAddress": map[string]any{
			"zipCode": "1",
		},
		"pastJobs": []any{map[string]any{"jobTitle": "x"}, "keep"},
	}
	snake := normalizer.SnakeCase().Normalize(in)
	assert.Equal(t, map[string]any{
		"first_name":   "Ann",
		"home_address": map[string]any{"zip_code": "1"},
		"past_jobs":    []any{map[string]any{"job_title": "x"}, "keep"},
	}, snake)
	assert.Contains(t, in, "firstName")

	assert.Equal(t, in, normalizer.CamelCase().Normalize(snake))
}

func TestRename_TypedListOfMaps(t *testing.T) {
	in := map[string]any{"rows": []map[string]any{{"first_name": "a"}, {"first_name": "b"}}}
	out := normalizer.CamelCase().Normalize(in)
	assert.Equal(t, []map[string]any{{"firstName": "a"}, {"firstName": "b"}}, out["rows"])
	assert.Equal(t, []map[string]any{{"first_name": "a"}, {"first_name": "b"}}, in["rows"])

	d, err := godto.FromMap[sheet](in, godto.LoadOpt{Normalizers: []godto.Normalizer{normalizer.CamelCase()}})
	require.NoError(t, err)
	assert.Equal(t, sheet{Rows: []row{{FirstName: "a"}, {FirstName: "b"}}}, d.Value())
}

func TestChainInPipeline(t *testing.T) {
	d, err := godto.FromMap[signup](map[string]any{"first_name": "Ann", "age": "30", "active": "1"},
		godto.LoadOpt{Normalizers: []godto.Normalizer{
			normalizer.CamelCase(),
			normalizer.Defaults(map[string]any{"country": "JP"}),
			normalizer.TypeCoercion(map[string]string{"active": "bool"}),
		}})
	require.NoError(t, err)
	assert.Equal(t, signup{FirstName: "Ann", Age: 30, Active: true, Country: "JP"}, d.Value())
}

func TestNormalize_NilResultBecomesEmpty(t *testing.T) {
	out := godto.Normalize(map[string]any{"a": 1}, godto.NormalizerFunc(func(map[string]any) map[string]any { return nil }))
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

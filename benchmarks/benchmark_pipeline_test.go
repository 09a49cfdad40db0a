package godto_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/reoring/godto"
)

// ---- Helpers ----

type benchMeta struct {
	Score float64
}

type benchUser struct {
	ID     string
	Name   string
	Age    int
	Active bool
	Meta   benchMeta
	Bio    string `dto:"lazy,optional"`
}

type benchTeam struct {
	Name    string
	Members *godto.Collection[benchUser]
}

func smallUserInput() map[string]any {
	return map[string]any{
		"id":     "u_1",
		"name":   "alice",
		"age":    "30",
		"active": "true",
		"meta":   map[string]any{"score": 1.5},
	}
}

// generateUserJSONArray returns a JSON array of objects of the form:
// [{"id":"obj_0","name":"n0","age":0,"active":true,"meta":{"score":0}}, ...]
func generateUserJSONArray(n int) []byte {
	var buf bytes.Buffer
	buf.Grow(n * 80)
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		is := strconv.Itoa(i)
		buf.WriteString(`{"id":"obj_` + is + `","name":"n` + is + `","age":` + is +
			`,"active":true,"meta":{"score":` + is + `}}`)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// ---- Benchmarks ----

func BenchmarkFromMap_Small(b *testing.B) {
	in := smallUserInput()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := godto.FromMap[benchUser](in); err != nil {
			b.Fatalf("load failed: %v", err)
		}
	}
}

func BenchmarkToMap_Small(b *testing.B) {
	d, err := godto.FromMap[benchUser](smallUserInput())
	if err != nil {
		b.Fatalf("load failed: %v", err)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := d.Sorted(godto.Asc).ToMap(); err != nil {
			b.Fatalf("render failed: %v", err)
		}
	}
}

func BenchmarkCollectionFromJSON(b *testing.B) {
	for _, n := range []int{10, 1000} {
		data := generateUserJSONArray(n)
		b.Run(strconv.Itoa(n), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				c, err := godto.CollectionFromJSON[benchUser](data)
				if err != nil {
					b.Fatalf("load failed: %v", err)
				}
				if c.Len() != n {
					b.Fatalf("want %d items, got %d", n, c.Len())
				}
			}
		})
	}
}

func BenchmarkCollectionCast(b *testing.B) {
	members := make([]any, 100)
	for i := range members {
		members[i] = map[string]any{"id": strconv.Itoa(i), "name": "n", "age": i, "active": true, "meta": map[string]any{"score": 0}}
	}
	in := map[string]any{"name": "core", "members": members}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d, err := godto.FromMap[benchTeam](in)
		if err != nil {
			b.Fatalf("load failed: %v", err)
		}
		if _, err := d.ToJSON(); err != nil {
			b.Fatalf("render failed: %v", err)
		}
	}
}

func BenchmarkResolve_Cold(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r := godto.NewResolver()
		if _, err := godto.FromMap[benchUser](smallUserInput(), godto.LoadOpt{Resolver: r}); err != nil {
			b.Fatalf("load failed: %v", err)
		}
	}
}

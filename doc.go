// Package godto turns Go structs into data transfer objects: values built
// from untyped input through a metadata-driven pipeline and rendered back
// to plain maps under a composable output view.
//
// Metadata is declared with struct tags and resolved once per type:
//
//	type User struct {
//		Name     string    `dto:"map=full_name"`
//		Age      int       `validate:"gte=0"`
//		Email    *string   `dto:"hidden_json"`
//		Joined   time.Time `dto:"cast=datetime:2006-01-02"`
//		Password string    `dto:"cast=hashed,hidden"`
//		Orders   *godto.Collection[Order]
//		Notes    string `dto:"lazy" when:"age >= 18"`
//	}
//
// Input runs: decode, template, filter, normalizers, key resolution,
// defaults and required checks, auto-coercion, input cast, validation.
//
//	u, err := godto.FromMap[User](map[string]any{"full_name": "Ann", "age": "30"})
//	m, err := u.Sorted(godto.Desc).Include("notes").ToMap()
//
// Class-level policy comes from the optional Configurer interface and
// computed fields from ComputedProvider. Every failure is an *Error.
//
// Design policy:
//   - Keep the public API in the root package; coercion and logging live
//     under internal/.
//   - Casts live in cast/, text formats in format/, key conventions in
//     naming/, built-in normalizers in normalizer/ and test data in factory/.
package godto

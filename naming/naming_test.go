package naming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reoring/godto/naming"
)

func TestConvention_Apply(t *testing.T) {
	cases := []struct {
		conv naming.Convention
		in   string
		want string
	}{
		{naming.None, "firstName", "firstName"},
		{naming.Snake, "firstName", "first_name"},
		{naming.Camel, "first_name", "firstName"},
		{naming.Pascal, "first_name", "FirstName"},
		{naming.Kebab, "firstName", "first-name"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.conv.Apply(tc.in), "%s(%q)", tc.conv, tc.in)
	}
}

func TestParse(t *testing.T) {
	assert.Equal(t, naming.Snake, naming.Parse("snake_case"))
	assert.Equal(t, naming.Camel, naming.Parse("Camel"))
	assert.Equal(t, naming.Pascal, naming.Parse("studly"))
	assert.Equal(t, naming.Kebab, naming.Parse("kebab"))
	assert.Equal(t, naming.None, naming.Parse("whatever"))
}

func TestGoFieldToProperty(t *testing.T) {
	assert.Equal(t, "name", naming.GoFieldToProperty("Name"))
	assert.Equal(t, "firstName", naming.GoFieldToProperty("FirstName"))
	assert.Equal(t, "id", naming.GoFieldToProperty("ID"))
	assert.Equal(t, "urlPath", naming.GoFieldToProperty("URLPath"))
	assert.Equal(t, "already", naming.GoFieldToProperty("already"))
}

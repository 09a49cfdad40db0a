package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	msg := T("required", map[string]string{"property": "email"})
	assert.Equal(t, "missing required property email", msg)

	SetLanguage("ja")
	defer SetLanguage("en")
	msg = T("required", map[string]string{"property": "email"})
	assert.Contains(t, msg, "email")
	assert.NotEqual(t, "missing required property email", msg)
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, "no_such_code", T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	assert.Equal(t, "X:invalid_type", T("invalid_type", nil))
}

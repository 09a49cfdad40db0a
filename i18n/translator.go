package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for error codes.
// data provides optional values to embed in the message (for example,
// "expected" or "property").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"required":           "missing required property {property}",
		"invalid_type":       "expected {expected}, got {actual}",
		"invalid_cast":       "cast {cast} failed",
		"nested":             "invalid nested value",
		"validation":         "failed validation rule {rule}",
		"collection_config":  "collection cast requires a target DTO type",
		"collection_element": "element is not a {expected}",
		"invalid_definition": "invalid DTO definition",
		"unsupported_format": "no decoder installed for {format}",
	},
	"ja": {
		"required":           "必須プロパティ {property} が不足しています",
		"invalid_type":       "{expected} が必要ですが {actual} が渡されました",
		"invalid_cast":       "キャスト {cast} に失敗しました",
		"nested":             "ネストした値が不正です",
		"validation":         "検証ルール {rule} に違反しています",
		"collection_config":  "コレクションキャストには対象 DTO 型が必要です",
		"collection_element": "要素が {expected} ではありません",
		"invalid_definition": "DTO 定義が不正です",
		"unsupported_format": "{format} のデコーダがありません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}

// Package i18n renders messages for fusion error codes. Messages may contain
// {name} placeholders filled from the data map.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for error codes.
// data provides optional values for placeholders such as {min} or {field}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalog = map[string]map[string]string{
	"en": {
		"invalid_type":      "invalid type",
		"required":          "null value for non-nullable field {field}",
		"unknown_key":       "unknown field '{key}'",
		"duplicate_key":     "duplicate field '{key}'",
		"too_small":         "value less than {min}",
		"too_big":           "value greater than {max}",
		"too_short":         "length less than {min}",
		"too_long":          "length greater than {max}",
		"invalid_enum":      "no constant {symbol} in enum {enum}",
		"invalid_format":    "invalid {kind} text",
		"parse_error":       "parse error",
		"overflow":          "value out of range for {qualifier}",
		"no_such_field":     "no such field: {field}",
		"duplicate_field":   "duplicate field name: {field}",
		"invalid_range":     "invalid range",
		"invalid_schema":    "invalid schema",
		"unknown_qualifier": "unknown qualifier {qualifier} for {kind}",
		"duplicate_name":    "name already registered: {name}",
		"not_writable":      "not writable",
		"already_init":      "already done-init",
		"readonly":          "field {field} is readonly",
		"key_only":          "key instance only accepts key fields, not {field}",
		"open_writer":       "blob still has open writer",
		"writer_in_use":     "already an unclosed writer",
		"not_comparable":    "not comparable",
		"invalid_value":     "invalid value for field {field}",
		"read_field":        "error reading value for field '{field}'",
	},
	"ja": {
		"invalid_type":      "型が不正です",
		"required":          "null を許可しないフィールド {field} に null が指定されました",
		"unknown_key":       "未知のフィールドです: '{key}'",
		"duplicate_key":     "フィールドが重複しています: '{key}'",
		"too_small":         "{min} より小さい値です",
		"too_big":           "{max} より大きい値です",
		"too_short":         "長さが {min} 未満です",
		"too_long":          "長さが {max} を超えています",
		"invalid_enum":      "列挙型 {enum} に {symbol} はありません",
		"invalid_format":    "{kind} の書式が不正です",
		"parse_error":       "解析エラー",
		"overflow":          "{qualifier} の範囲外です",
		"no_such_field":     "フィールドがありません: {field}",
		"duplicate_field":   "フィールド名が重複しています: {field}",
		"invalid_range":     "範囲指定が不正です",
		"invalid_schema":    "スキーマが不正です",
		"unknown_qualifier": "{kind} の修飾子 {qualifier} は未登録です",
		"duplicate_name":    "名前は登録済みです: {name}",
		"not_writable":      "書き込みできません",
		"already_init":      "初期化は完了済みです",
		"readonly":          "フィールド {field} は読み取り専用です",
		"key_only":          "キーインスタンスにキー以外のフィールド {field} は設定できません",
		"open_writer":       "書き込みストリームが開いたままです",
		"writer_in_use":     "閉じられていない書き込みストリームがあります",
		"not_comparable":    "比較できません",
		"invalid_value":     "フィールド {field} の値が不正です",
		"read_field":        "フィールド '{field}' の読み込みに失敗しました",
	},
}

// dictTranslator is the built-in catalogue-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		if msg, ok = catalog["en"][code]; !ok {
			return code
		}
	}
	return expand(msg, data)
}

func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalog[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores the English catalogue.
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

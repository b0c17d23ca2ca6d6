package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
)

const (
	LocaleEN = "en-US"
	LocaleZH = "zh-CN"
)

const localeQueryKey = "lang"

var supported = []language.Tag{
	language.AmericanEnglish,
	language.SimplifiedChinese,
}

var matcher = language.NewMatcher(supported)

// ResolveLocale 按 query 参数与 Accept-Language 解析语言，默认英文
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleEN
	}
	if raw := strings.TrimSpace(c.Query(localeQueryKey)); raw != "" {
		return Match(raw)
	}
	return Match(c.GetHeader("Accept-Language"))
}

// Match 将任意语言描述归一为受支持的语言
func Match(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return LocaleEN
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return LocaleEN
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return LocaleEN
	}
	switch supported[index] {
	case language.SimplifiedChinese:
		return LocaleZH
	default:
		return LocaleEN
	}
}

// T 翻译消息键，缺失时回退英文，再回退为键本身
func T(locale, key string) string {
	if msgs, ok := catalog[locale]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后按参数格式化
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

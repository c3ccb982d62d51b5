package collector

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	spaceRe      = regexp.MustCompile(`\s+`)
	bracketStrip = strings.NewReplacer("<", "", ">", "")
)

// CleanSummary 把原始 HTML 摘要转换为纯文本并截断到 budget 个字符
func CleanSummary(raw string, budget int) string {
	if raw == "" {
		return ""
	}

	text := strictPolicy.Sanitize(raw)
	// Sanitize 会把文本里的 < > & 转义，这里还原实体后再去掉残留的尖括号
	text = html.UnescapeString(text)
	text = bracketStrip.Replace(text)
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	return Truncate(text, budget)
}

// Truncate 按 rune 截断，保证结果不超过 budget 个字符
func Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return strings.TrimSpace(string(runes[:budget]))
}

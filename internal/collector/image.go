package collector

import (
	"html"
	"math/rand/v2"
	"net/url"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

var imgSrcRe = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)

// ExtractImageURL 从条目中提取配图地址
// 优先级: media:content (image) > media:thumbnail > enclosure (image/*) > 摘要中的第一个 <img>。
// 只接受 http/https 地址，找不到时返回空字符串。
func ExtractImageURL(item *gofeed.Item) string {
	if item == nil {
		return ""
	}

	if mediaExt, ok := item.Extensions["media"]; ok {
		for _, content := range mediaExt["content"] {
			if content.Attrs["medium"] != "image" && !strings.HasPrefix(content.Attrs["type"], "image/") {
				continue
			}
			if u := content.Attrs["url"]; isValidImageScheme(u) {
				return u
			}
		}

		for _, thumb := range mediaExt["thumbnail"] {
			if u := thumb.Attrs["url"]; isValidImageScheme(u) {
				return u
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && isValidImageScheme(enc.URL) {
			return enc.URL
		}
	}

	for _, raw := range []string{item.Description, item.Content} {
		if m := imgSrcRe.FindStringSubmatch(raw); m != nil {
			if u := html.UnescapeString(strings.TrimSpace(m[1])); isValidImageScheme(u) {
				return u
			}
		}
	}

	return ""
}

// isValidImageScheme 只接受 http/https 地址
func isValidImageScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Picker 从备用图片池中选一张
type Picker func(pool []string) string

// RandomPick 随机选择一张备用图片，图片池为空时返回空字符串
func RandomPick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))]
}

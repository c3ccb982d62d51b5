package collector

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "Hello world", "Hello world"},
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "<p>AT&amp;T &lt;rocks&gt;</p>", "AT&T rocks"},
		{"script dropped", "<script>alert(1)</script><p>ok</p>", "ok"},
		{"whitespace", "<p>a</p>\n\n<p>b</p>", "a b"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSummary(tt.raw, 200))
		})
	}
}

func TestCleanSummary_NoMarkupForMalformedHTML(t *testing.T) {
	inputs := []string{
		"<b>unclosed <i>tags",
		"<div><p>nested <span>deep",
		"text with a dangling <img src=\"x",
		"<<<>>> weird < b > brackets",
		"<a href='x'>link</a><",
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"</p></div>stray closers",
	}

	for _, raw := range inputs {
		got := CleanSummary(raw, 200)
		assert.NotContains(t, got, "<", "input %q", raw)
		assert.NotContains(t, got, ">", "input %q", raw)
	}
}

func TestCleanSummary_Budget(t *testing.T) {
	long := "<p>" + strings.Repeat("新闻内容 ", 200) + "</p>"
	for _, budget := range []int{1, 10, 200, 300} {
		got := CleanSummary(long, budget)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), budget)
		assert.NotEmpty(t, got)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "人工", Truncate("人工智能", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}

package generator

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"

	dm "github.com/iWorld-y/news_brief/internal/model"
)

const systemPrompt = "你是一个科技主编。请直接输出简报正文，不要使用代码块。"

// 纯文本简报，沿用朋友圈风格
const textPrompt = `你是一个科技主编。请根据以下RSS抓取的AI新闻，为家人朋友生成一份简报。
日期：{{.Date}}

要求：
1. 用中文，通俗易懂，像发朋友圈一样。
2. 只选最重要的 {{.MaxPicks}} 条。
3. 每条格式：emoji 标题 (来源) 换行后一句话总结。
4. 结尾给一句简短的个人见解/辣评。
5. 不要使用Markdown代码块，直接输出文本。

内容（共 {{.Count}} 条）：
{{.Content}}`

const markdownPrompt = `你是一个科技主编。请根据以下RSS抓取的AI新闻，生成一份 Markdown 格式的简报。
日期：{{.Date}}

要求：
1. 用中文，通俗易懂。
2. 只选最重要的 {{.MaxPicks}} 条，按重要性排序。
3. 每条使用三级标题 "### emoji 标题"，下一行给出来源和原文链接 [阅读原文](链接)，再用一两句话总结；有配图时在总结前插入 ![](图片地址)。
4. 结尾用引用块 "> " 给一句简短的个人见解/辣评。
5. 不要使用代码块标记，直接输出 Markdown 正文。

内容（共 {{.Count}} 条）：
{{.Content}}`

const htmlPrompt = `你是一个科技主编。请根据以下RSS抓取的AI新闻，生成一份 HTML 片段格式的简报，用于在手机上阅读。
日期：{{.Date}}

要求：
1. 用中文，通俗易懂。
2. 只选最重要的 {{.MaxPicks}} 条，按重要性排序。
3. 每条用一个 <div> 包裹：<h3> 写 emoji 和标题，有配图时用 <img src="图片地址" style="width:100%;border-radius:8px"> 展示，<p> 写一两句话总结，最后用 <a href="链接">阅读原文</a> 标注来源。
4. 结尾用 <blockquote> 给一句简短的个人见解/辣评。
5. 只输出 HTML 片段，不要输出 <html>、<head>、<body> 标签，不要使用代码块标记。

内容（共 {{.Count}} 条）：
{{.Content}}`

// promptData 渲染提示词模板的数据
type promptData struct {
	Date     string
	Content  string
	MaxPicks int
	Count    int
}

func defaultTemplate(format dm.Format) (*template.Template, error) {
	var text string
	switch format {
	case dm.FormatMarkdown:
		text = markdownPrompt
	case dm.FormatHTML:
		text = htmlPrompt
	default:
		text = textPrompt
	}
	return template.New(string(format)).Parse(text)
}

// FormatItems 把新闻条目序列化为分段文本，每条一段
func FormatItems(items []dm.NewsItem) string {
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "Source: %s\n", item.Source)
		fmt.Fprintf(&sb, "Title: %s\n", item.Title)
		fmt.Fprintf(&sb, "Link: %s\n", item.Link)
		fmt.Fprintf(&sb, "Summary: %s\n", item.Summary)
		if item.ImageURL != "" {
			fmt.Fprintf(&sb, "Image: %s\n", item.ImageURL)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

var fenceLineRe = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_+-]*[ \t]*\r?$\n?")

// StripCodeFences 去掉模型回显的代码块标记
func StripCodeFences(s string) string {
	s = fenceLineRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

package model

import "time"

// NewsItem 归一化后的单条 RSS 条目
type NewsItem struct {
	Title    string
	Link     string
	Source   string // 来源，取自 feed 标题
	Summary  string // 已清洗为纯文本并截断
	ImageURL string
}

// Format 报告输出格式
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Report 模型生成的简报
type Report struct {
	Content     string
	Format      Format
	Model       string // 实际生成内容的模型
	GeneratedAt time.Time
}

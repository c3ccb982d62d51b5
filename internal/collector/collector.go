package collector

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/iWorld-y/news_brief/internal/config"
	"github.com/iWorld-y/news_brief/internal/logger"
	"github.com/iWorld-y/news_brief/internal/model"
	"github.com/iWorld-y/news_brief/internal/netutil"
)

const unknownSource = "Unknown Source"

// TextFetcher 抓取原文并返回纯文本
type TextFetcher func(ctx context.Context, link string) (string, error)

// Collector RSS 抓取器，按顺序逐个处理 feed
type Collector struct {
	parser         *gofeed.Parser
	timeout        time.Duration
	summaryBudget  int
	fallbackImages []string
	pick           Picker
	enrich         bool
	fetchText      TextFetcher
}

// Option 可选配置
type Option func(*Collector)

// WithPicker 替换备用图片的选择函数
func WithPicker(p Picker) Option {
	return func(c *Collector) { c.pick = p }
}

// WithTextFetcher 替换原文抓取函数
func WithTextFetcher(f TextFetcher) Option {
	return func(c *Collector) { c.fetchText = f }
}

// New 创建抓取器
func New(cfg *config.Config, opts ...Option) *Collector {
	timeout := config.Timeout(cfg.HTTP.Timeout, 30*time.Second)

	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: timeout}
	if cfg.HTTP.UserAgent != "" {
		fp.UserAgent = cfg.HTTP.UserAgent
	}

	c := &Collector{
		parser:         fp,
		timeout:        timeout,
		summaryBudget:  cfg.SummaryBudget,
		fallbackImages: cfg.FallbackImages,
		pick:           RandomPick,
		enrich:         cfg.EnrichEmptySummaries,
	}
	c.fetchText = c.readabilityText

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect 依次抓取所有 feed，每个 feed 最多取 perFeedLimit 条。
// 单个 feed 失败只记录日志并跳过。
func (c *Collector) Collect(ctx context.Context, feeds []string, perFeedLimit int) []model.NewsItem {
	log := logger.FromContext(ctx)
	log.Info("📡 正在抓取新闻...")

	var items []model.NewsItem
	parsed := 0
	for _, feedURL := range feeds {
		feed, err := c.fetch(ctx, feedURL)
		if err != nil {
			log.Warnf("⚠️ 解析错误 [%s]: %v", feedURL, err)
			continue
		}
		parsed++

		source := strings.TrimSpace(feed.Title)
		if source == "" {
			source = unknownSource
		}
		log.Infof("   -> 已抓取: %s", source)

		entries := feed.Items
		if len(entries) > perFeedLimit {
			entries = entries[:max(perFeedLimit, 0)]
		}
		for _, entry := range entries {
			if entry == nil {
				continue
			}
			items = append(items, c.normalize(ctx, entry, source))
		}
	}

	log.Infof("共抓取 %d 条新闻，来自 %d/%d 个源", len(items), parsed, len(feeds))
	return items
}

// fetch 抓取并解析单个 feed，临时传输错误重试一次
func (c *Collector) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	feed, err := c.parseURL(ctx, feedURL)
	if err != nil && netutil.IsTransient(err) {
		logger.FromContext(ctx).Warnf("抓取出现临时错误，重试一次 [%s]: %v", feedURL, err)
		feed, err = c.parseURL(ctx, feedURL)
	}
	return feed, err
}

func (c *Collector) parseURL(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.parser.ParseURLWithContext(feedURL, ctx)
}

func (c *Collector) normalize(ctx context.Context, entry *gofeed.Item, source string) model.NewsItem {
	raw := entry.Description
	if strings.TrimSpace(raw) == "" {
		raw = entry.Content
	}
	summary := CleanSummary(raw, c.summaryBudget)

	if summary == "" && c.enrich && entry.Link != "" {
		text, err := c.fetchText(ctx, entry.Link)
		if err != nil {
			logger.FromContext(ctx).Warnf("原文抓取失败，摘要留空 [%s]: %v", entry.Title, err)
		} else {
			summary = CleanSummary(text, c.summaryBudget)
		}
	}

	image := ExtractImageURL(entry)
	if image == "" {
		image = c.pick(c.fallbackImages)
	}

	return model.NewsItem{
		Title:    strings.TrimSpace(entry.Title),
		Link:     strings.TrimSpace(entry.Link),
		Source:   source,
		Summary:  summary,
		ImageURL: image,
	}
}

// readabilityText 抓取 URL 并提取核心文本
func (c *Collector) readabilityText(_ context.Context, link string) (string, error) {
	article, err := readability.FromURL(link, c.timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}
